package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/credential"
	"github.com/encryptshare/encryptshare/internal/envelope"
)

// Fetch downloads a sealed blob, opens it locally and writes the plaintext
// to outPath (or the original filename when outPath is empty). Reading the
// stream to the end is what consumes the transfer, so a wrong passphrase
// discovered during envelope.Open means the file is already gone. The
// verifier check on the server rejects wrong passphrases before the
// download starts, which keeps that case theoretical.
func (a *App) Fetch(ctx context.Context, id, outPath string) error {
	pass, err := getPassphrase("Enter the passphrase: ", a.out)
	if err != nil {
		return err
	}
	defer pass.Destroy()

	verifier := credential.Derive(pass.Bytes())

	res, err := a.api.Download(ctx, id, verifier)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAccessDenied):
			return errors.New("access denied: wrong passphrase")
		case errors.Is(err, common.ErrGone):
			return errors.New("this file was already downloaded or has expired")
		case errors.Is(err, common.ErrNotFound):
			return errors.New("no such file reference")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()

	sealed, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("download interrupted: %w", err)
	}

	plaintext, err := envelope.Open(sealed, pass.Bytes())
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	if outPath == "" {
		outPath = res.Name
	}
	if outPath == "" {
		outPath = id
	}

	if err := os.WriteFile(outPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("error writing %s: %w", outPath, err)
	}

	fmt.Fprintf(a.out, "Saved to %s\n", outPath)
	return nil
}
