// Package cli implements the EncryptShare command-line client. Files are
// sealed and opened locally; the server only ever sees ciphertext and the
// one-way verifier.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/encryptshare/encryptshare/internal/client/api"
	"github.com/encryptshare/encryptshare/internal/client/config"
)

type App struct {
	config *config.Config
	api    *api.Client
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		api:    api.NewClient(c.ServerEndpointAddr, c.Token),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: encryptshare <command> [args]")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  send <file> [receiver-email]   seal a file and upload it")
	fmt.Fprintln(w, "  fetch <id> [output-file]       download and open a sealed file")
	fmt.Fprintln(w, "  list                           show your transfer history")
	fmt.Fprintln(w, "  notify <id> <receiver-email>   re-send the notification email")
	fmt.Fprintln(w, "  ping                           check server reachability")
}

// Run dispatches a single subcommand. Returns a non-nil error when the
// command failed; the caller decides the exit code.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage(a.out)
		return nil
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "send":
		if len(rest) < 1 {
			return fmt.Errorf("usage: send <file> [receiver-email]")
		}
		receiver := ""
		if len(rest) > 1 {
			receiver = rest[1]
		}
		return a.Send(ctx, rest[0], receiver)
	case "fetch":
		if len(rest) < 1 {
			return fmt.Errorf("usage: fetch <id> [output-file]")
		}
		out := ""
		if len(rest) > 1 {
			out = rest[1]
		}
		return a.Fetch(ctx, rest[0], out)
	case "list":
		return a.List(ctx)
	case "notify":
		if len(rest) < 2 {
			return fmt.Errorf("usage: notify <id> <receiver-email>")
		}
		return a.Notify(ctx, rest[0], rest[1])
	case "ping":
		if err := a.api.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "server is alive")
		return nil
	default:
		usage(a.out)
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
