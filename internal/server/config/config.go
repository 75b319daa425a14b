// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the gophsecrets server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the web application.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint; empty disables it.
//   - DatabaseDSN: "postgres://..." (pgx) or "sqlite://path" / "file:..." (modernc sqlite).
//   - HealthCheckInterval: how often the gRPC health status re-pings the database.
//   - SecretKey: HMAC secret for signing session cookies (HS256). Do not use the default in prod.
//   - SessionValidityDuration: lifetime of a login session.
//   - SessionSweepInterval: how often expired sessions are purged from memory.
//   - PBKDF2Iterations: work factor for newly hashed passwords.
//   - AssetsDir / DownloadFile: local directory and name of the gated download.
//   - MetricsEnabled: expose Prometheus metrics on /metrics.
//   - Development: relaxes cookie and security-header settings for plain-HTTP local runs.
//   - S3*: when S3Bucket is set the download is streamed from an S3-compatible bucket instead.
type Config struct {
	EndpointAddrHTTP        string
	EndpointAddrGRPC        string
	HealthCheckInterval     time.Duration
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	SessionSweepInterval    time.Duration
	PBKDF2Iterations        int
	AssetsDir               string
	DownloadFile            string
	MetricsEnabled          bool
	Development             bool
	S3RootUser              string
	S3RootPassword          string
	S3Bucket                string
	S3Region                string
	S3BaseEndpoint          string
	S3Prefix                string
}

// DefaultPBKDF2Iterations is the work factor used when none is configured.
const DefaultPBKDF2Iterations = 600_000

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey in particular must be overridden outside local runs.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":5000"
	c.EndpointAddrGRPC = ":50051"
	c.HealthCheckInterval = 15 * time.Second
	c.DatabaseDSN = "sqlite://users.db"
	c.SecretKey = "bunny-pig"
	c.SessionValidityDuration = 24 * time.Hour
	c.SessionSweepInterval = 10 * time.Minute
	c.PBKDF2Iterations = DefaultPBKDF2Iterations
	c.AssetsDir = "static/files"
	c.DownloadFile = "cheat_sheet.pdf"
	c.MetricsEnabled = true
	c.Development = false
	c.S3Region = "us-east-1"
}

// UseS3 reports whether the download should come from object storage.
func (c *Config) UseS3() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
