package flash

import (
	"time"

	"github.com/moffa90/go-flctl/flctl"
)

// Config holds the engine configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// WaitTimeout bounds every poll of a controller flag. Zero waits forever.
	WaitTimeout time.Duration

	// Waiter replaces the default PollWaiter (optional)
	Waiter Waiter

	// ExecAddress returns an address inside the code calling the engine.
	// Targets in the same bank are rejected.
	ExecAddress func() uint32

	// MaxProgramPulses caps program pulses per Write or FastWrite
	MaxProgramPulses int

	// MaxErasePulses caps erase pulses per Erase
	MaxErasePulses int

	// VerifyWaitStates is the read wait state setting used in the
	// program verify and erase verify read modes
	VerifyWaitStates uint32

	// ReadWaitStates is restored after a verify read
	ReadWaitStates uint32
}

// defaultConfig returns the default configuration.
// Wait states are the 48 MHz minimums.
func defaultConfig() Config {
	return Config{
		ExecAddress:      func() uint32 { return flctl.Bank0Min },
		MaxProgramPulses: flctl.MaxProgramPulses,
		MaxErasePulses:   flctl.MaxErasePulses,
		VerifyWaitStates: 5,
		ReadWaitStates:   2,
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithLogger sets a logger for the engine operations.
//
// Example:
//
//	eng := flash.New(bus, flash.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithWaitTimeout bounds how long the engine polls any single controller
// flag before giving up with a TimeoutError.
//
// Example:
//
//	eng := flash.New(bus, flash.WithWaitTimeout(50*time.Millisecond))
func WithWaitTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.WaitTimeout = timeout
		}
	}
}

// WithWaiter replaces the polling strategy. WithWaitTimeout is ignored
// when a Waiter is set.
func WithWaiter(w Waiter) Option {
	return func(c *Config) {
		c.Waiter = w
	}
}

// WithExecAddress sets the query used to locate the calling code.
//
// On the target, pass a function returning the address of a function that
// is linked next to the engine. Code copied to SRAM returns an SRAM address
// and may then program either bank.
func WithExecAddress(fn func() uint32) Option {
	return func(c *Config) {
		if fn != nil {
			c.ExecAddress = fn
		}
	}
}

// WithExecBank declares that the calling code runs from bank b.
//
// Example:
//
//	eng := flash.New(bus, flash.WithExecBank(flctl.Bank1)) // program bank 0
func WithExecBank(b flctl.Bank) Option {
	return WithExecAddress(func() uint32 { return b.Min() })
}

// WithPulseLimits overrides the program and erase pulse caps.
// Non-positive values keep the defaults.
func WithPulseLimits(program, erase int) Option {
	return func(c *Config) {
		if program > 0 {
			c.MaxProgramPulses = program
		}
		if erase > 0 {
			c.MaxErasePulses = erase
		}
	}
}

// WithWaitStates sets the read wait states used during verify reads and
// restored afterwards. Values above 15 are ignored.
func WithWaitStates(verify, normal uint32) Option {
	return func(c *Config) {
		if verify <= 15 && normal <= 15 {
			c.VerifyWaitStates = verify
			c.ReadWaitStates = normal
		}
	}
}
