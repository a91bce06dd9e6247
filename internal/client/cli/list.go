package cli

import (
	"context"
	"fmt"
)

// List prints the owner's transfer history, newest first.
func (a *App) List(ctx context.Context) error {
	files, err := a.api.ListFiles(ctx)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Fprintln(a.out, "No transfers yet.")
		return nil
	}

	for _, f := range files {
		fmt.Fprintf(a.out, "%s  %-10s  %10d  %s\n", f.ID, f.State, f.Size, f.Name)
	}
	return nil
}

// Notify asks the server to re-send the notification email for a transfer.
func (a *App) Notify(ctx context.Context, id, receiver string) error {
	senderName, err := a.getSimpleText("Your name (shown in the notification email):", a.out)
	if err != nil {
		return err
	}
	if err := a.api.Send(ctx, receiver, id, senderName); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Notification sent.")
	return nil
}
