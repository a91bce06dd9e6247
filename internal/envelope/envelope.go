// Package envelope implements the self-describing encrypted blob exchanged
// between sender and receiver. The server side of EncryptShare only ever
// sees the sealed bytes; sealing and opening happen at the client edge,
// where the passphrase lives.
//
// Envelope layout is positional and fixed, with no delimiters or length
// prefixes:
//
//	[salt 16 bytes][nonce 12 bytes][AES-GCM ciphertext + tag]
//
// The symmetric key is derived from the passphrase with PBKDF2-SHA256 and
// a fresh random salt on every Seal, so a nonce is never reused under the
// same key.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"github.com/encryptshare/encryptshare/internal/common"
)

const (
	// SaltSize is the width of the random KDF salt at the head of an envelope.
	SaltSize = 16
	// NonceSize is the width of the AES-GCM nonce following the salt.
	NonceSize = 12
	// KeySize is the derived AES key width (AES-256).
	KeySize = 32
	// Iterations is the fixed PBKDF2 iteration count. Changing it breaks
	// compatibility with every envelope already in circulation.
	Iterations = 1000

	headerSize = SaltSize + NonceSize
)

// ErrAuthenticationFailed is returned by Open when the authentication tag
// does not verify: a wrong passphrase and corrupted bytes are deliberately
// indistinguishable, and no partial plaintext is ever returned.
var ErrAuthenticationFailed = errors.New("envelope authentication failed")

// DeriveKey stretches a passphrase into a 256-bit AES key using
// PBKDF2-SHA256 with the fixed iteration count. Deterministic for a given
// passphrase and salt.
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, Iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under a key derived from passphrase and returns
// the full envelope (salt, nonce and authenticated ciphertext).
func Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	nonce := common.GenerateRandByteArray(NonceSize)

	aesgcm, err := newGCM(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, headerSize+len(plaintext)+aesgcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aesgcm.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Open decrypts an envelope produced by Seal. It returns
// ErrAuthenticationFailed for any envelope that does not verify under the
// presented passphrase, including truncated or tampered input.
func Open(env, passphrase []byte) ([]byte, error) {
	if len(env) < headerSize {
		return nil, ErrAuthenticationFailed
	}
	salt := env[:SaltSize]
	nonce := env[SaltSize:headerSize]
	ciphertext := env[headerSize:]

	aesgcm, err := newGCM(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
