package config

const (
	// DefaultTimeoutMs is the default request timeout in milliseconds
	DefaultTimeoutMs = 30000
	// DefaultMaxRedirects is the default number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultOutput is the default output format
	DefaultOutput = "console"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeoutMs,
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		Output:          DefaultOutput,
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		c.RateLimit == 0 &&
		c.Output == defaults.Output &&
		c.OutputFile == "" &&
		!c.GetNoAbort() &&
		!c.GetPrint() &&
		!c.GetNoColor() &&
		len(c.EnvFiles) == 0 &&
		len(c.Variables) == 0
}
