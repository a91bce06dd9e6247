package credential

import (
	"bytes"
	"errors"
	"testing"

	"github.com/encryptshare/encryptshare/internal/common"
)

func TestDerive_FixedSizeAndDeterministic(t *testing.T) {
	v1 := Derive([]byte("Passphrase1"))
	v2 := Derive([]byte("Passphrase1"))

	if len(v1) != Size {
		t.Fatalf("expected %d-byte verifier, got %d", Size, len(v1))
	}
	if !bytes.Equal(v1, v2) {
		t.Fatalf("expected deterministic verifier")
	}
}

func TestDerive_DifferentPassphrases(t *testing.T) {
	if bytes.Equal(Derive([]byte("Passphrase1")), Derive([]byte("Passphrase2"))) {
		t.Fatalf("expected different verifiers for different passphrases")
	}
}

func TestCheck(t *testing.T) {
	v := Derive([]byte("Passphrase1"))

	if !Check(v, Derive([]byte("Passphrase1"))) {
		t.Errorf("expected match for equal passphrases")
	}
	if Check(v, Derive([]byte("Passphrase2"))) {
		t.Errorf("expected mismatch for different passphrases")
	}
	if Check(v, v[:Size-1]) {
		t.Errorf("expected mismatch for truncated candidate")
	}
	if Check(v, nil) {
		t.Errorf("expected mismatch for nil candidate")
	}
}

func TestValidatePassphrase(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		wantErr    bool
	}{
		{"valid mixed case", "Sunshine42", false},
		{"exactly min length", "Abcdefgh", false},
		{"too short", "Abc1", true},
		{"no upper case", "lowercase1", true},
		{"no lower case", "UPPERCASE1", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassphrase(tc.passphrase)
			if tc.wantErr {
				if !errors.Is(err, common.ErrValidation) {
					t.Fatalf("want ErrValidation, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateVerifier(t *testing.T) {
	if err := ValidateVerifier(make([]byte, Size)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateVerifier(make([]byte, Size-1)); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if err := ValidateVerifier(nil); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}
