package monitor

import "github.com/moffa90/go-flctl/flash"

// Config holds the client and server configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger flash.Logger

	// Retries is the number of times a client resends a command whose
	// response failed its checksum
	Retries int
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Retries: 3,
	}
}

// Option is a functional option for configuring a Client or Server.
type Option func(*Config)

// WithLogger sets a logger.
func WithLogger(logger flash.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRetries sets the number of resend attempts after a corrupted response.
//
// Example:
//
//	client := monitor.NewClient(port, monitor.WithRetries(5))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

func logDebug(c Config, msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Debug(msg, keysAndValues...)
	}
}

func logInfo(c Config, msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Info(msg, keysAndValues...)
	}
}

func logError(c Config, msg string, keysAndValues ...interface{}) {
	if c.Logger != nil {
		c.Logger.Error(msg, keysAndValues...)
	}
}
