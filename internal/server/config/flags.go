package config

import (
	"flag"
	"os"
	"time"

	"github.com/encryptshare/encryptshare/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-m int      upload size ceiling, bytes
//	-l int      max self-destruct deadline, minutes
//	-i int      sweep interval, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-k string   Mailjet public key
//	-x string   Mailjet private key
//	-f string   notification sender address
//	-w string   download page URL embedded into notifications
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-m", "-l", "-i", "-u", "-p", "-b", "-g", "-e", "-k", "-x", "-f", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.Int64Var(&config.MaxUploadBytes, "m", config.MaxUploadBytes, "max upload size (in bytes)")
	fs.IntVar(&config.MaxDeadlineMinutes, "l", config.MaxDeadlineMinutes, "max self-destruct deadline (in minutes)")

	sweepInterval := fs.Int("i", int(config.SweepInterval.Seconds()), "sweep_interval (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.MailjetPublicKey, "k", config.MailjetPublicKey, "Mailjet public key")
	fs.StringVar(&config.MailjetPrivateKey, "x", config.MailjetPrivateKey, "Mailjet private key")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "notification sender address")
	fs.StringVar(&config.DownloadPageURL, "w", config.DownloadPageURL, "download page URL")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SweepInterval = time.Duration(*sweepInterval) * time.Second
}
