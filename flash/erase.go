package flash

import (
	"context"
	"fmt"

	"github.com/moffa90/go-flctl/flctl"
)

// Erase erases the 4 KiB sector starting at addr, re-pulsing until an
// erase verify burst compare finds every word all ones.
//
// Erase is not interrupt safe.
func (e *Engine) Erase(ctx context.Context, addr uint32) (err error) {
	const op = "erase"

	if !EraseAddrValid(addr) {
		return &AddressError{Op: op, Addr: addr, Reason: "must be 4 KiB aligned and within flash"}
	}
	bank, err := e.checkTarget(op, addr)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s := e.newSession(ctx, op, bank)

	s.clearFlags(flctl.IFGErase)
	s.set(flctl.EraseCtlStatAddr, uint32(flctl.EraseClrStat))

	saved := s.unlock(flctl.SectorBit(bank, addr))
	defer func() {
		s.clearFlags(flctl.IFGErase | flctl.IFGRdBrst)
		s.set(flctl.EraseCtlStatAddr, uint32(flctl.EraseClrStat))
		s.set(flctl.RdBrstCtlStatAddr, uint32(flctl.RdBrstClrStat))
		s.relock(saved)
		if err == nil {
			err = s.err
		}
	}()

	if err := s.erasePulse(addr); err != nil {
		return err
	}
	pulses := 1

	for {
		if pulses > e.config.MaxErasePulses {
			return e.verifyFailed(op, addr, pulses)
		}

		failures, err := s.blankCheck(addr)
		if err != nil {
			return err
		}
		if failures == 0 {
			break
		}

		e.logDebug("sector not blank", "addr", hex32(addr), "failures", failures, "pulses", pulses)

		s.clearFlags(flctl.IFGErase)
		s.set(flctl.EraseCtlStatAddr, uint32(flctl.EraseClrStat))
		if err := s.erasePulse(addr); err != nil {
			return err
		}
		pulses++
	}

	e.logInfo("sector erased", "addr", hex32(addr), "pulses", pulses)
	return nil
}

// erasePulse issues one sector erase of main memory and waits for ERASE.
func (s *session) erasePulse(addr uint32) error {
	s.store(flctl.EraseSectAddr, addr)
	ctl := flctl.EraseCtl(s.load(flctl.EraseCtlStatAddr))
	ctl = ctl&^flctl.EraseTypeMask | flctl.EraseTypeMain
	ctl &^= flctl.EraseMode
	s.store(flctl.EraseCtlStatAddr, uint32(ctl))
	s.set(flctl.EraseCtlStatAddr, uint32(flctl.EraseStart))
	return s.waitFlag(flctl.IFGErase)
}

// blankCheck runs a read burst compare of the sector against all ones in
// erase verify mode and returns the failure count.
func (s *session) blankCheck(addr uint32) (uint32, error) {
	s.set(flctl.RdBrstCtlStatAddr, uint32(flctl.RdBrstClrStat))
	s.store(flctl.RdBrstStartAddr, addr-flctl.Bank0Min)
	s.store(flctl.RdBrstLenAddr, flctl.SectorSize)

	ctl := flctl.RdBrstCtl(s.load(flctl.RdBrstCtlStatAddr))
	ctl &^= flctl.RdBrstTestEn | flctl.RdBrstMemTypeMask
	ctl |= flctl.RdBrstDataCmp | flctl.RdBrstStopFail | flctl.RdBrstMemTypeMain
	s.store(flctl.RdBrstCtlStatAddr, uint32(ctl))

	s.store(flctl.RdBrstFailAddr, 0)
	s.store(flctl.RdBrstFailCntAddr, 0)
	s.clearFlags(flctl.IFGRdBrst)

	err := s.readMode(flctl.ReadEraseVerify, func() error {
		s.set(flctl.RdBrstCtlStatAddr, uint32(flctl.RdBrstStart))
		if err := s.waitFlag(flctl.IFGRdBrst); err != nil {
			return err
		}
		s.set(flctl.RdBrstCtlStatAddr, uint32(flctl.RdBrstClrStat))
		return nil
	})
	if err != nil {
		return 0, err
	}

	// The compare error bit is cleared with the status; the count is kept.
	return s.load(flctl.RdBrstFailCntAddr), s.err
}

// EraseBank erases every sector of bank b, stopping at the first failure.
// It returns the number of sectors erased.
func (e *Engine) EraseBank(ctx context.Context, b flctl.Bank) (int, error) {
	n := 0
	for addr := b.Min(); addr < b.Max(); addr += flctl.SectorSize {
		if err := e.Erase(ctx, addr); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
