package config

import (
	"os"
	"strconv"
)

// Environment variables.
const (
	EnvHome         = "FREIGHTDASH_HOME"
	EnvProjectDir   = "FREIGHTDASH_PROJECT_DIR"
	EnvGatewayURL   = "FREIGHTDASH_GATEWAY_URL"
	EnvGatewayToken = "FREIGHTDASH_GATEWAY_TOKEN" //nolint:gosec // Variable name, not a credential.
	EnvFixtures     = "FREIGHTDASH_FIXTURES"
	EnvLogLevel     = "FREIGHTDASH_LOG_LEVEL"
	EnvLogFormat    = "FREIGHTDASH_LOG_FORMAT"
	EnvPageSize     = "FREIGHTDASH_PAGE_SIZE"
)

// ApplyEnv overrides fields from the environment. Unparseable numbers are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvGatewayURL); v != "" {
		c.Gateway.URL = v
	}
	if v := os.Getenv(EnvGatewayToken); v != "" {
		c.Gateway.Token = v
	}
	if v := os.Getenv(EnvFixtures); v != "" {
		c.Gateway.Fixtures = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dashboard.PageSize = n
		}
	}
}
