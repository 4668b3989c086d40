package image

import "github.com/moffa90/go-flctl/flash"

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger flash.Logger

	// VerifyAfterProgram enables a full readback after programming
	VerifyAfterProgram bool

	// Burst enables FastWrite for 16-byte aligned runs
	Burst bool

	// Erase enables erasing the touched sectors before programming
	Erase bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		VerifyAfterProgram: true,
		Burst:              true,
		Erase:              true,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
//
// Example:
//
//	prog := image.NewProgrammer(eng,
//	    image.WithProgressCallback(func(p image.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger flash.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithVerifyAfterProgram enables or disables the readback after programming.
// Default is true.
func WithVerifyAfterProgram(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterProgram = verify
	}
}

// WithBurst enables or disables burst programming. Default is true.
func WithBurst(burst bool) Option {
	return func(c *Config) {
		c.Burst = burst
	}
}

// WithErase enables or disables the sector erase before programming.
// Default is true. Programming without erasing only succeeds where the
// image clears bits that are still set.
func WithErase(erase bool) Option {
	return func(c *Config) {
		c.Erase = erase
	}
}
