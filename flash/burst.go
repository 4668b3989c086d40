package flash

import (
	"context"
	"fmt"

	"github.com/moffa90/go-flctl/flctl"
)

// FastWrite burst programs up to 16 words from src starting at a 16-byte
// aligned address. Words beyond the sixteenth are ignored.
//
// It returns the number of words written. On full success that is
// min(len(src), 16). When the pulse cap is exceeded the count is the number
// of words that verified, alongside a VerifyError. A burst into reserved
// memory returns 0 and a RegionLockError, although words ahead of the
// reserved address may have been programmed.
//
// FastWrite is not interrupt safe.
func (e *Engine) FastWrite(ctx context.Context, src []uint32, addr uint32) (n int, err error) {
	const op = "fast write"

	count := len(src)
	if count > flctl.BurstWords {
		count = flctl.BurstWords
	}
	if !MassWriteAddrValid(addr, count) {
		return 0, &AddressError{Op: op, Addr: addr, Reason: "must be 16-byte aligned with the whole range within flash"}
	}
	last := addr
	if count > 0 {
		last = addr + uint32(count)*flctl.WordSize - 1
	}
	if flctl.BankOf(last) != flctl.BankOf(addr) {
		return 0, &AddressError{Op: op, Addr: addr, Reason: "range crosses the bank boundary"}
	}
	bank, err := e.checkTarget(op, addr)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	src = src[:count]
	s := e.newSession(ctx, op, bank)

	s.clearFlags(flctl.IFGBurstFlags)
	s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstClrStat))

	saved := s.unlock(flctl.SectorBit(bank, addr) | flctl.SectorBit(bank, last))
	defer func() {
		s.clearFlags(flctl.IFGBurstFlags)
		s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstClrStat))
		s.relock(saved)
		if err == nil && s.err != nil {
			n, err = 0, s.err
		}
	}()

	data := make([]uint32, flctl.BurstWords)
	for i := range data {
		data[i] = flctl.ErasedWord
		if i < count {
			data[i] = src[i]
		}
	}
	s.loadBurst(data)

	s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstAutoPst|flctl.PrgBrstAutoPre))
	ctl := flctl.PrgBrstCtl(s.load(flctl.PrgBrstCtlStatAddr))
	ctl = ctl&^flctl.PrgBrstTypeMask | flctl.PrgBrstTypeMain
	ctl = ctl&^flctl.PrgBrstLenMask | flctl.BurstLen(count)
	s.store(flctl.PrgBrstCtlStatAddr, uint32(ctl))
	s.store(flctl.PrgBrstStartAddr, addr)

	if err := s.startBurst(); err != nil {
		return 0, err
	}
	if s.burstStatus()&flctl.PrgBrstAddrErr != 0 {
		e.logError("burst hit reserved memory", "addr", hex32(addr), "count", count)
		return 0, &RegionLockError{Addr: addr, Count: count}
	}
	pulses := 1

	for {
		status := s.burstStatus()
		if s.err != nil {
			return 0, s.err
		}

		if status&(flctl.PrgBrstPreErr|flctl.PrgBrstPstErr) == 0 {
			actual, err := s.verifyRead(addr, count)
			if err != nil {
				return 0, err
			}
			if matching(actual, src) == count {
				break
			}
			// Set bits requested over programmed zeros are not reported
			// by the controller.
			status = flctl.PrgBrstPstErr
		}

		if status&flctl.PrgBrstPreErr != 0 {
			if pulses > e.config.MaxProgramPulses {
				return e.burstExhausted(s, addr, src, pulses)
			}

			existing, err := s.verifyRead(addr, count)
			if err != nil {
				return 0, err
			}
			updated := make([]uint32, count)
			pending := false
			for i := range updated {
				cur := s.load(flctl.PrgBrstDataAddr(i))
				updated[i] = cur | ^(existing[i] | cur)
				if updated[i] != flctl.ErasedWord {
					pending = true
				}
			}
			s.clearFlags(flctl.IFGBurstFlags)
			s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstClrStat))

			e.logDebug("burst pre-verify heal", "addr", hex32(addr), "pulses", pulses)

			if pending {
				if err := s.reburst(updated); err != nil {
					return 0, err
				}
				pulses++
			}
			status = s.burstStatus()
		}

		if status&flctl.PrgBrstPstErr != 0 {
			if pulses > e.config.MaxProgramPulses {
				return e.burstExhausted(s, addr, src, pulses)
			}

			actual, err := s.verifyRead(addr, count)
			if err != nil {
				return 0, err
			}
			updated := make([]uint32, count)
			pending := false
			for i := range updated {
				failBits := ^s.load(flctl.PrgBrstDataAddr(i)) & actual[i]
				updated[i] = ^failBits
				if failBits != 0 || actual[i] != src[i] {
					pending = true
				}
			}
			s.clearFlags(flctl.IFGBurstFlags)
			s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstClrStat))

			e.logDebug("burst post-verify heal", "addr", hex32(addr), "pulses", pulses)

			if pending {
				if err := s.reburst(updated); err != nil {
					return 0, err
				}
				pulses++
			}
		}
	}

	e.logDebug("burst programmed", "addr", hex32(addr), "count", count, "pulses", pulses)
	return count, nil
}

// loadBurst fills the burst data registers.
func (s *session) loadBurst(data []uint32) {
	for i, v := range data {
		s.store(flctl.PrgBrstDataAddr(i), v)
	}
}

// startBurst starts the configured burst and waits for PRGB.
func (s *session) startBurst() error {
	s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstStart))
	return s.waitFlag(flctl.IFGPrgB)
}

// reburst reprograms with post-verify only. The first len(updated) data
// registers are replaced; padding stays erased.
func (s *session) reburst(updated []uint32) error {
	s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstAutoPst))
	s.clear(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstAutoPre))
	s.loadBurst(updated)
	return s.startBurst()
}

func (s *session) burstStatus() flctl.PrgBrstCtl {
	return flctl.PrgBrstCtl(s.load(flctl.PrgBrstCtlStatAddr))
}

// burstExhausted counts the words that verify and reports the cap.
func (e *Engine) burstExhausted(s *session, addr uint32, src []uint32, pulses int) (int, error) {
	s.clearFlags(flctl.IFGBurstFlags)
	s.set(flctl.PrgBrstCtlStatAddr, uint32(flctl.PrgBrstClrStat))

	actual, err := s.verifyRead(addr, len(src))
	if err != nil {
		return 0, err
	}
	return matching(actual, src), e.verifyFailed("fast write", addr, pulses)
}

func matching(actual, want []uint32) int {
	n := 0
	for i := range want {
		if actual[i] == want[i] {
			n++
		}
	}
	return n
}
