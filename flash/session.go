package flash

import (
	"context"
	"errors"
	"fmt"

	"github.com/moffa90/go-flctl/flctl"
)

// session carries one operation's register traffic. The first bus error
// sticks: later loads return 0 and later stores are dropped, and every
// wait returns immediately so the operation unwinds to its lock restore.
type session struct {
	e    *Engine
	ctx  context.Context
	op   string
	bank flctl.Bank
	err  error
}

func (e *Engine) newSession(ctx context.Context, op string, bank flctl.Bank) *session {
	return &session{e: e, ctx: ctx, op: op, bank: bank}
}

func (s *session) load(addr uint32) uint32 {
	if s.err != nil {
		return 0
	}
	v, err := s.e.bus.Load(addr)
	if err != nil {
		s.err = fmt.Errorf("%s: load 0x%08X: %w", s.op, addr, err)
		return 0
	}
	return v
}

func (s *session) store(addr, value uint32) {
	if s.err != nil {
		return
	}
	if err := s.e.bus.Store(addr, value); err != nil {
		s.err = fmt.Errorf("%s: store 0x%08X: %w", s.op, addr, err)
	}
}

// set and clear are read-modify-write helpers for control registers.
func (s *session) set(addr, bits uint32) {
	s.store(addr, s.load(addr)|bits)
}

func (s *session) clear(addr, bits uint32) {
	s.store(addr, s.load(addr)&^bits)
}

func (s *session) ifg() flctl.IFG {
	return flctl.IFG(s.load(flctl.IFGAddr))
}

func (s *session) clearFlags(flags flctl.IFG) {
	s.store(flctl.ClrIFGAddr, uint32(flags))
}

// wait polls until ready holds. It records and returns a TimeoutError or
// the context error; a sticky bus error ends the wait at once.
func (s *session) wait(what string, ready func() bool) error {
	if s.err != nil {
		return s.err
	}
	err := s.e.waiter.Wait(s.ctx, func() bool {
		return s.err != nil || ready()
	})
	switch {
	case err == nil:
		return s.err
	case errors.Is(err, ErrTimeout):
		te := &TimeoutError{Op: s.op, Waiting: what}
		if pw, ok := s.e.waiter.(PollWaiter); ok {
			te.Timeout = pw.Timeout
		}
		err = te
	default:
		err = fmt.Errorf("%s: waiting for %s: %w", s.op, what, err)
	}
	if s.err == nil {
		s.err = err
	}
	s.e.logError("flash wait aborted", "op", s.op, "waiting", what, "error", err)
	return err
}

// waitFlag waits for a completion flag in IFG.
func (s *session) waitFlag(flag flctl.IFG) error {
	return s.wait(flag.String(), func() bool {
		return s.ifg()&flag != 0
	})
}

// readMode switches the target bank to mode, runs fn, then goes back to
// normal reads with the normal wait states.
func (s *session) readMode(mode flctl.ReadMode, fn func() error) error {
	rd := flctl.RdCtlAddr(s.bank)
	cfg := s.e.config

	s.store(rd, uint32(flctl.MakeRdCtl(cfg.VerifyWaitStates, mode)))
	if err := s.wait("read mode "+mode.String(), func() bool {
		return flctl.RdCtl(s.load(rd)).ModeStatus() == mode
	}); err != nil {
		return err
	}

	fnErr := fn()

	s.store(rd, uint32(flctl.RdCtl(s.load(rd)).WithMode(flctl.ReadNormal)))
	if err := s.wait("read mode normal", func() bool {
		return flctl.RdCtl(s.load(rd)).ModeStatus() == flctl.ReadNormal
	}); err != nil {
		return err
	}
	s.store(rd, uint32(flctl.RdCtl(s.load(rd)).WithWaitStates(cfg.ReadWaitStates)))

	if fnErr != nil {
		return fnErr
	}
	return s.err
}

// verifyRead reads n words at addr in program verify read mode.
func (s *session) verifyRead(addr uint32, n int) ([]uint32, error) {
	words := make([]uint32, n)
	err := s.readMode(flctl.ReadProgramVerify, func() error {
		for i := range words {
			words[i] = s.load(addr + uint32(i)*flctl.WordSize)
		}
		return s.err
	})
	return words, err
}

// unlock clears the WEPROT bits in mask and returns their previous value.
func (s *session) unlock(mask uint32) uint32 {
	weprot := flctl.MainWEProtAddr(s.bank)
	cur := s.load(weprot)
	saved := cur & mask
	s.store(weprot, cur&^mask)
	s.e.logDebug("sector unlocked", "op", s.op, "mask", fmt.Sprintf("0x%08X", mask),
		"saved", fmt.Sprintf("0x%08X", saved))
	return saved
}

// relock restores bits saved by unlock. It goes straight to the bus so the
// lock comes back even after an earlier bus error or timeout.
func (s *session) relock(saved uint32) {
	weprot := flctl.MainWEProtAddr(s.bank)
	cur, err := s.e.bus.Load(weprot)
	if err == nil {
		err = s.e.bus.Store(weprot, cur|saved)
	}
	if err != nil {
		s.e.logError("lock restore failed", "op", s.op, "error", err)
		if s.err == nil {
			s.err = fmt.Errorf("%s: restore lock: %w", s.op, err)
		}
	}
}
