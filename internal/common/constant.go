package common

// AuthHeaderName is the HTTP header used to carry the access token on
// owner-scoped requests (upload, listing).
const AuthHeaderName = "Authorization"

// VerifierHeaderName is the HTTP header used to present the passphrase
// verifier on download requests. Only the one-way digest ever crosses the
// wire; the passphrase itself stays at the client edge.
const VerifierHeaderName = "X-Credential-Verifier"
