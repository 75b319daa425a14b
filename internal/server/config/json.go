package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophsecrets/internal/flagx"
	"github.com/dmitrijs2005/gophsecrets/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "10m" and integer nanoseconds are accepted.
//
// Pointer fields distinguish "absent" from the zero value, so a partial
// file only overrides what it mentions.
type JsonConfig struct {
	EndpointAddrHTTP        *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC        *string         `json:"endpoint_addr_grpc"`
	HealthCheckInterval     *timex.Duration `json:"health_check_interval"`
	DatabaseDSN             *string         `json:"database_dsn"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	SessionSweepInterval    *timex.Duration `json:"session_sweep_interval"`
	PBKDF2Iterations        *int            `json:"pbkdf2_iterations"`
	AssetsDir               *string         `json:"assets_dir"`
	DownloadFile            *string         `json:"download_file"`
	MetricsEnabled          *bool           `json:"metrics_enabled"`
	Development             *bool           `json:"development"`
	S3RootUser              *string         `json:"s3_root_user"`
	S3RootPassword          *string         `json:"s3_root_password"`
	S3Bucket                *string         `json:"s3_bucket"`
	S3Region                *string         `json:"s3_region"`
	S3BaseEndpoint          *string         `json:"s3_base_endpoint"`
	S3Prefix                *string         `json:"s3_prefix"`
}

// parseJson overlays values from the JSON file named by -c/-config onto
// config. Without the flag nothing is loaded. An unreadable or invalid file
// panics, since the server cannot start with a config it cannot read.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AssetsDir, c.AssetsDir)
	setString(&config.DownloadFile, c.DownloadFile)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3Prefix, c.S3Prefix)

	if c.HealthCheckInterval != nil {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.SessionSweepInterval != nil {
		config.SessionSweepInterval = c.SessionSweepInterval.Duration
	}
	if c.PBKDF2Iterations != nil {
		config.PBKDF2Iterations = *c.PBKDF2Iterations
	}
	if c.MetricsEnabled != nil {
		config.MetricsEnabled = *c.MetricsEnabled
	}
	if c.Development != nil {
		config.Development = *c.Development
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
