package flash

import (
	"context"
	"fmt"

	"github.com/moffa90/go-flctl/flctl"
)

// Engine programs and erases main flash through the FLCTL registers.
//
// Engine is not safe for concurrent use; see the package documentation.
type Engine struct {
	bus    Bus
	config Config
	waiter Waiter
}

// New creates a new Engine on the given bus.
//
// Example:
//
//	eng := flash.New(bus,
//	    flash.WithLogger(myLogger),
//	    flash.WithWaitTimeout(100*time.Millisecond),
//	)
func New(bus Bus, opts ...Option) *Engine {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	waiter := cfg.Waiter
	if waiter == nil {
		waiter = PollWaiter{Timeout: cfg.WaitTimeout}
	}

	return &Engine{
		bus:    bus,
		config: cfg,
		waiter: waiter,
	}
}

// Init exists for source compatibility with parts that need flash timing
// set up. On the MSP432 flash timing is configured with the clock system,
// so Init does nothing.
func (e *Engine) Init(systemClockMHz uint8) {
	e.logDebug("flash init", "clock_mhz", systemClockMHz)
}

// checkTarget rejects targets in the bank of the running code.
func (e *Engine) checkTarget(op string, addr uint32) (flctl.Bank, error) {
	bank := flctl.BankOf(addr)
	exec := e.config.ExecAddress()
	if flctl.BankOf(exec) == bank {
		err := &BankConflictError{Op: op, Addr: addr, ExecAddr: exec, Bank: bank}
		e.logError("bank conflict", "op", op, "addr", hex32(addr), "exec", hex32(exec))
		return bank, err
	}
	return bank, nil
}

// Write programs one 32-bit word at a 4-byte aligned address.
//
// Bits can only go from 1 to 0. Bits of data that are already 0 in flash
// are left alone; a 1 in data over a programmed 0 can never be satisfied
// and ends in a VerifyError once the pulse cap is exceeded.
//
// Write is not interrupt safe.
func (e *Engine) Write(ctx context.Context, addr, data uint32) (err error) {
	const op = "write"

	if !WriteAddrValid(addr) {
		return &AddressError{Op: op, Addr: addr, Reason: "must be 4-byte aligned and within flash"}
	}
	bank, err := e.checkTarget(op, addr)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s := e.newSession(ctx, op, bank)
	saved := s.unlock(flctl.SectorBit(bank, addr))
	defer func() {
		s.relock(saved)
		if err == nil {
			err = s.err
		}
	}()

	s.clearFlags(flctl.IFGWordFlags)
	s.set(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlEnable))
	s.clear(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlMode))
	s.set(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlVerPst|flctl.PrgCtlVerPre))

	pulses := 0
	if err := s.programWord(addr, data); err != nil {
		return err
	}
	pulses++

	for {
		ifg := s.ifg()
		if s.err != nil {
			return s.err
		}

		if ifg&(flctl.IFGAvPre|flctl.IFGAvPst) == 0 {
			actual, err := s.verifyRead(addr, 1)
			if err != nil {
				return err
			}
			if actual[0] == data {
				break
			}
			// A requested 1 over a programmed 0. The controller does not
			// flag it, so treat it as a post-verify failure.
			ifg = flctl.IFGAvPst
		}

		if ifg&flctl.IFGAvPre != 0 {
			if pulses > e.config.MaxProgramPulses {
				s.clearFlags(flctl.IFGWordFlags)
				return e.verifyFailed(op, addr, pulses)
			}

			existing, err := s.verifyRead(addr, 1)
			if err != nil {
				return err
			}
			failBits := ^(existing[0] | data)
			updated := data | failBits
			s.clearFlags(flctl.IFGWordFlags)

			e.logDebug("pre-verify heal", "addr", hex32(addr), "existing", hex32(existing[0]),
				"updated", hex32(updated), "pulses", pulses)

			if updated != flctl.ErasedWord {
				s.set(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlVerPst))
				s.clear(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlVerPre))
				if err := s.programWord(addr, updated); err != nil {
					return err
				}
				pulses++
			}
			ifg = s.ifg()
		}

		if ifg&flctl.IFGAvPst != 0 {
			if pulses > e.config.MaxProgramPulses {
				s.clearFlags(flctl.IFGWordFlags)
				return e.verifyFailed(op, addr, pulses)
			}

			actual, err := s.verifyRead(addr, 1)
			if err != nil {
				return err
			}
			failBits := ^data & actual[0]
			updated := ^failBits
			s.clearFlags(flctl.IFGWordFlags)

			e.logDebug("post-verify heal", "addr", hex32(addr), "actual", hex32(actual[0]),
				"fail_bits", hex32(failBits), "pulses", pulses)

			if failBits != 0 || actual[0] != data {
				s.set(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlVerPst|flctl.PrgCtlVerPre))
				if err := s.programWord(addr, updated); err != nil {
					return err
				}
				pulses++
			}
		}
	}

	s.clearFlags(flctl.IFGWordFlags)
	e.logDebug("word programmed", "addr", hex32(addr), "data", hex32(data), "pulses", pulses)
	return nil
}

// programWord issues one word program pulse and waits for PRG.
func (s *session) programWord(addr, value uint32) error {
	s.store(addr, value)
	return s.waitFlag(flctl.IFGPrg)
}

// WriteArray programs src to consecutive words starting at addr.
// It stops at the first failure and returns the number of words written
// together with that failure; n == len(src) if everything succeeded, and
// the caller can resume from src[n].
//
// WriteArray is not interrupt safe.
func (e *Engine) WriteArray(ctx context.Context, src []uint32, addr uint32) (int, error) {
	for n, word := range src {
		if err := e.Write(ctx, addr+uint32(n)*flctl.WordSize, word); err != nil {
			return n, err
		}
	}
	return len(src), nil
}

// Read returns the word at a 4-byte aligned flash address in normal read mode.
func (e *Engine) Read(ctx context.Context, addr uint32) (uint32, error) {
	words, err := e.ReadArray(ctx, addr, 1)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// ReadArray returns n consecutive words starting at addr.
func (e *Engine) ReadArray(ctx context.Context, addr uint32, n int) ([]uint32, error) {
	const op = "read"

	if !WriteAddrValid(addr) || n < 0 ||
		uint64(addr)+uint64(n)*flctl.WordSize > flctl.FlashSize {
		return nil, &AddressError{Op: op, Addr: addr, Reason: "range must be word aligned and within flash"}
	}

	if br, ok := e.bus.(BlockReader); ok {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		words, err := br.ReadBlock(addr, n)
		if err != nil {
			return nil, fmt.Errorf("%s: block 0x%08X: %w", op, addr, err)
		}
		return words, nil
	}

	words := make([]uint32, n)
	for i := range words {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		v, err := e.bus.Load(addr + uint32(i)*flctl.WordSize)
		if err != nil {
			return nil, fmt.Errorf("%s: load 0x%08X: %w", op, addr+uint32(i)*flctl.WordSize, err)
		}
		words[i] = v
	}
	return words, nil
}

func (e *Engine) verifyFailed(op string, addr uint32, pulses int) error {
	limit := e.config.MaxProgramPulses
	if op == "erase" {
		limit = e.config.MaxErasePulses
	}
	err := &VerifyError{Op: op, Addr: addr, Pulses: pulses, Limit: limit}
	e.logError("verify exhausted", "op", op, "addr", hex32(addr), "pulses", pulses)
	return err
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

// logDebug logs a debug message if a logger is configured.
func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, keysAndValues...)
	}
}
