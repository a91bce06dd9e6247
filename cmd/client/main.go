package main

import (
	"context"
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/encryptshare/encryptshare/internal/buildinfo"
	"github.com/encryptshare/encryptshare/internal/client/cli"
	"github.com/encryptshare/encryptshare/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// Wipe locked buffers on interrupt and at exit.
	memguard.CatchInterrupt()
	defer memguard.Purge()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(ctx, nonFlagArgs(os.Args[1:])); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}

}

// nonFlagArgs strips "-x value" style flag pairs handled by the config
// layer, leaving only the subcommand and its positional arguments.
func nonFlagArgs(args []string) []string {
	var out []string
	skip := false
	for _, a := range args {
		if skip {
			skip = false
			continue
		}
		if len(a) > 0 && a[0] == '-' {
			skip = true
			continue
		}
		out = append(out, a)
	}
	return out
}
