package config

import (
	"flag"
	"os"

	"github.com/encryptshare/encryptshare/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server (default from Config)
//	-t string   bearer token for owner-scoped calls
//	-y int      default self-destruct deadline in minutes (0 disables)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-y"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL to access server")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "bearer token")
	fs.IntVar(&cfg.DefaultExpiryMinutes, "y", cfg.DefaultExpiryMinutes, "default expiry (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
