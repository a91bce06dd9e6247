// Package credential turns a raw passphrase into a fixed-size verifier that
// is safe to store server-side. The verifier is a one-way digest: it gates
// access to the sealed bytes but cannot decrypt them, since decryption
// needs the passphrase itself to re-derive the symmetric key at the edge.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"unicode"

	"github.com/encryptshare/encryptshare/internal/common"
)

// Size is the verifier width in bytes (SHA-256).
const Size = sha256.Size

// MinPassphraseLength is the shortest passphrase accepted by policy.
const MinPassphraseLength = 8

// Derive computes the verifier for a passphrase. Computed at the client
// edge; only the digest ever reaches the server.
func Derive(passphrase []byte) []byte {
	sum := sha256.Sum256(passphrase)
	return sum[:]
}

// Check compares a stored verifier against a presented one in constant
// time, regardless of where the two first differ.
func Check(verifier, presented []byte) bool {
	return subtle.ConstantTimeCompare(verifier, presented) == 1
}

// ValidatePassphrase enforces the passphrase policy: minimum length and at
// least one upper- and one lower-case letter. The client edge applies it
// before sealing; the gateway re-applies the verifier shape check at its
// own boundary.
func ValidatePassphrase(passphrase string) error {
	if len(passphrase) < MinPassphraseLength {
		return fmt.Errorf("%w: passphrase must be at least %d characters", common.ErrValidation, MinPassphraseLength)
	}
	var hasUpper, hasLower bool
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper || !hasLower {
		return fmt.Errorf("%w: passphrase must mix upper and lower case", common.ErrValidation)
	}
	return nil
}

// ValidateVerifier checks that a presented verifier has the expected
// digest width. Enforced again at the gateway boundary so malformed
// credentials fail fast before any storage work.
func ValidateVerifier(verifier []byte) error {
	if len(verifier) != Size {
		return fmt.Errorf("%w: verifier must be %d bytes", common.ErrValidation, Size)
	}
	return nil
}
