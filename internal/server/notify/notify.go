// Package notify defines the outbound notification hook fired after an
// upload when the sender supplied a receiver contact. Delivery is
// best-effort: a failed notification never fails the upload, and the
// message carries only the transfer id, never the passphrase.
package notify

import "context"

// Notifier delivers a "you've received a file" message to a contact.
type Notifier interface {
	Send(ctx context.Context, contact, transferID, senderName string) error
}

// Noop discards notifications. Used in tests and when no mail backend is
// configured.
type Noop struct{}

func (Noop) Send(ctx context.Context, contact, transferID, senderName string) error {
	return nil
}
