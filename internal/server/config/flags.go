package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophsecrets/internal/flagx"
)

var (
	valueFlags = []string{"-a", "-g", "-d", "-s", "-t", "-w", "-i", "-f", "-n", "-u", "-p", "-b", "-r", "-e", "-x", "-hc"}
	boolFlags  = []string{"-m", "-dev"}
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":5000")
//	-g string   gRPC health bind address, empty disables
//	-hc int     gRPC health database check interval, seconds (0 checks once)
//	-d string   database DSN
//	-s string   session signing secret
//	-t int      session validity, minutes
//	-w int      expired-session sweep interval, minutes
//	-i int      PBKDF2 iterations for new hashes
//	-f string   local assets directory
//	-n string   download file name
//	-m bool     expose /metrics
//	-dev bool   development mode, needed for plain-HTTP access beyond localhost
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket (enables the S3 asset source)
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-x string   S3 key prefix
//
// os.Args is filtered through flagx.FilterArgs first, so the -c/-config
// flag handled by parseJson does not trip this flag set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], valueFlags, boolFlags...)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run the web server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to run the gRPC health server")
	healthCheck := fs.Int("hc", int(config.HealthCheckInterval.Seconds()), "gRPC health database check interval (in seconds)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")

	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	sweepInterval := fs.Int("w", int(config.SessionSweepInterval.Minutes()), "expired session sweep interval (in minutes)")

	fs.IntVar(&config.PBKDF2Iterations, "i", config.PBKDF2Iterations, "PBKDF2 iterations")
	fs.StringVar(&config.AssetsDir, "f", config.AssetsDir, "assets directory")
	fs.StringVar(&config.DownloadFile, "n", config.DownloadFile, "download file name")
	fs.BoolVar(&config.MetricsEnabled, "m", config.MetricsEnabled, "expose Prometheus metrics")
	fs.BoolVar(&config.Development, "dev", config.Development, "development mode (cookies lose the Secure flag; use when serving plain HTTP beyond localhost)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3Prefix, "x", config.S3Prefix, "S3 key prefix")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.HealthCheckInterval = time.Duration(*healthCheck) * time.Second
	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
	config.SessionSweepInterval = time.Duration(*sweepInterval) * time.Minute
}
