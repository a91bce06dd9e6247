package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/encryptshare/encryptshare/internal/client/api"
	"github.com/encryptshare/encryptshare/internal/common"
	"github.com/encryptshare/encryptshare/internal/credential"
	"github.com/encryptshare/encryptshare/internal/envelope"
)

// Send seals a local file under a passphrase and uploads the result. Only
// the ciphertext and the one-way verifier leave the machine; the receiver
// needs the reference plus the passphrase, shared out of band.
func (a *App) Send(ctx context.Context, filePath, receiver string) error {
	plaintext, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", filePath, err)
	}
	defer common.WipeByteArray(plaintext)

	pass, err := getPassphrase("Choose a passphrase: ", a.out)
	if err != nil {
		return err
	}
	defer pass.Destroy()

	if err := credential.ValidatePassphrase(string(pass.Bytes())); err != nil {
		return err
	}

	sealed, err := envelope.Seal(plaintext, pass.Bytes())
	if err != nil {
		return fmt.Errorf("error sealing file: %w", err)
	}
	verifier := credential.Derive(pass.Bytes())

	senderName := ""
	if receiver != "" {
		senderName, err = a.getSimpleText("Your name (shown in the notification email):", a.out)
		if err != nil {
			return err
		}
	}

	result, err := a.api.Upload(ctx, api.UploadRequest{
		FileName:      filepath.Base(filePath),
		Receiver:      receiver,
		SenderName:    senderName,
		ExpiryMinutes: a.config.DefaultExpiryMinutes,
		Verifier:      verifier,
		Blob:          bytes.NewReader(sealed),
	})
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(a.out, "Uploaded. Share this reference: %s\n", result.ID)
	fmt.Fprintf(a.out, "Download link: %s%s\n", a.config.ServerEndpointAddr, result.Link)
	fmt.Fprintln(a.out, "The passphrase is NOT stored anywhere. Share it out of band.")
	return nil
}
