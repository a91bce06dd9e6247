package config

// Config holds runtime settings for the EncryptShare CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - Token: bearer token identifying the sender on owner-scoped calls.
//   - DefaultExpiryMinutes: self-destruct deadline applied to uploads when
//     the user does not pick one. Zero means no deadline.
type Config struct {
	ServerEndpointAddr   string
	Token                string
	DefaultExpiryMinutes int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DefaultExpiryMinutes = 0
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
