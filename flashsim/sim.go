package flashsim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-flctl/flctl"
)

var (
	// ErrMisaligned is returned for accesses that are not word aligned
	ErrMisaligned = errors.New("misaligned access")

	// ErrUnmapped is returned for accesses outside flash and FLCTL
	ErrUnmapped = errors.New("unmapped address")
)

// Access records one store seen by the simulator.
type Access struct {
	Addr  uint32
	Value uint32
}

// Stats counts the pulses the controller applied to the array.
type Stats struct {
	ProgramPulses int // word program pulses
	BurstPulses   int // burst program operations that reached the array
	ErasePulses   int // sector erase pulses
	Compares      int // read burst compare operations
}

// Sim is a simulated flash controller and main memory array.
type Sim struct {
	mu sync.Mutex

	flash []uint32
	regs  map[uint32]uint32
	ifg   flctl.IFG

	weak       map[uint32]*weakCell
	stubborn   map[uint32]int
	reserved   []region
	stalled    flctl.IFG
	storeFault map[uint32]error

	stats Stats
	log   []Access
}

// New returns a simulator with erased flash and every sector locked.
func New() *Sim {
	s := &Sim{
		flash:      make([]uint32, flctl.FlashSize/flctl.WordSize),
		weak:       make(map[uint32]*weakCell),
		stubborn:   make(map[uint32]int),
		storeFault: make(map[uint32]error),
	}
	for i := range s.flash {
		s.flash[i] = flctl.ErasedWord
	}
	s.resetRegisters()
	return s
}

func (s *Sim) resetRegisters() {
	s.regs = map[uint32]uint32{
		flctl.Bank0RdCtlAddr:      uint32(flctl.MakeRdCtl(2, flctl.ReadNormal)),
		flctl.Bank1RdCtlAddr:      uint32(flctl.MakeRdCtl(2, flctl.ReadNormal)),
		flctl.Bank0InfoWEProtAddr: 0x3,
		flctl.Bank1InfoWEProtAddr: 0x3,
		flctl.Bank0MainWEProtAddr: 0xFFFFFFFF,
		flctl.Bank1MainWEProtAddr: 0xFFFFFFFF,
	}
	s.ifg = 0
}

// Load implements flash.Bus.
func (s *Sim) Load(addr uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr%flctl.WordSize != 0 {
		return 0, fmt.Errorf("load 0x%08X: %w", addr, ErrMisaligned)
	}
	switch {
	case addr < flctl.FlashSize:
		return s.flash[addr/flctl.WordSize], nil
	case flctl.IsRegister(addr):
		return s.readRegister(addr), nil
	default:
		return 0, fmt.Errorf("load 0x%08X: %w", addr, ErrUnmapped)
	}
}

// Store implements flash.Bus.
func (s *Sim) Store(addr, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr%flctl.WordSize != 0 {
		return fmt.Errorf("store 0x%08X: %w", addr, ErrMisaligned)
	}
	if err, ok := s.storeFault[addr]; ok {
		delete(s.storeFault, addr)
		return fmt.Errorf("store 0x%08X: %w", addr, err)
	}
	switch {
	case addr < flctl.FlashSize:
		s.log = append(s.log, Access{Addr: addr, Value: value})
		s.programWord(addr, value)
		return nil
	case flctl.IsRegister(addr):
		s.log = append(s.log, Access{Addr: addr, Value: value})
		s.writeRegister(addr, value)
		return nil
	default:
		return fmt.Errorf("store 0x%08X: %w", addr, ErrUnmapped)
	}
}

func (s *Sim) readRegister(addr uint32) uint32 {
	switch addr {
	case flctl.IFGAddr:
		return uint32(s.ifg)
	case flctl.ClrIFGAddr, flctl.SetIFGAddr:
		return 0
	default:
		return s.regs[addr]
	}
}

func (s *Sim) writeRegister(addr, v uint32) {
	switch addr {
	case flctl.IFGAddr:
		// read only
	case flctl.ClrIFGAddr:
		s.ifg &^= flctl.IFG(v)
	case flctl.SetIFGAddr:
		s.raise(flctl.IFG(v))
	case flctl.Bank0RdCtlAddr, flctl.Bank1RdCtlAddr:
		rd := flctl.RdCtl(v) &^ flctl.RdCtlModeStatusMask
		rd |= flctl.RdCtl(rd.Mode()) << flctl.RdCtlModeStatusShift
		s.regs[addr] = uint32(rd)
	case flctl.PrgCtlStatAddr:
		status := s.regs[addr] & uint32(flctl.PrgCtlStatusMask)
		s.regs[addr] = v&^uint32(flctl.PrgCtlStatusMask) | status
	case flctl.PrgBrstCtlStatAddr:
		ctl := flctl.PrgBrstCtl(v)
		status := flctl.PrgBrstCtl(s.regs[addr]) & flctl.PrgBrstStatusMask
		if ctl&flctl.PrgBrstClrStat != 0 {
			status = 0
		}
		s.regs[addr] = uint32(ctl&^(flctl.PrgBrstStart|flctl.PrgBrstClrStat|flctl.PrgBrstStatusMask) | status)
		if ctl&flctl.PrgBrstStart != 0 {
			s.burst()
		}
	case flctl.EraseCtlStatAddr:
		ctl := flctl.EraseCtl(v)
		status := flctl.EraseCtl(s.regs[addr]) & (flctl.EraseStatusMask | flctl.EraseAddrErr)
		if ctl&flctl.EraseClrStat != 0 {
			status = 0
		}
		s.regs[addr] = uint32(ctl&^(flctl.EraseStart|flctl.EraseClrStat|flctl.EraseStatusMask|flctl.EraseAddrErr) | status)
		if ctl&flctl.EraseStart != 0 {
			s.erase()
		}
	case flctl.RdBrstCtlStatAddr:
		ctl := flctl.RdBrstCtl(v)
		status := flctl.RdBrstCtl(s.regs[addr]) & flctl.RdBrstStatusMask
		if ctl&flctl.RdBrstClrStat != 0 {
			status = 0
		}
		s.regs[addr] = uint32(ctl&^(flctl.RdBrstStart|flctl.RdBrstClrStat|flctl.RdBrstStatusMask) | status)
		if ctl&flctl.RdBrstStart != 0 {
			s.compare()
		}
	default:
		s.regs[addr] = v
	}
}

// raise sets completion or error flags, except stalled ones.
func (s *Sim) raise(f flctl.IFG) {
	s.ifg |= f &^ s.stalled
}

func (s *Sim) locked(addr uint32) bool {
	b := flctl.BankOf(addr)
	if b == flctl.NoBank {
		return true
	}
	return s.regs[flctl.MainWEProtAddr(b)]&flctl.SectorBit(b, addr) != 0
}

// pulse applies one program pulse to the word at addr and returns the
// resulting value. Weak cells keep some bits at 1 for a number of pulses.
func (s *Sim) pulse(addr, v uint32) uint32 {
	i := addr / flctl.WordSize
	existing := s.flash[i]
	next := existing & v
	if w, ok := s.weak[addr]; ok && w.pulses > 0 {
		next |= existing &^ v & w.mask
		w.pulses--
	}
	s.flash[i] = next
	return next
}

// programWord handles a store to main memory.
func (s *Sim) programWord(addr, v uint32) {
	prg := flctl.PrgCtl(s.regs[flctl.PrgCtlStatAddr])
	if prg&flctl.PrgCtlEnable == 0 {
		s.raise(flctl.IFGPrgErr)
		return
	}
	if s.locked(addr) || s.isReserved(addr) {
		s.raise(flctl.IFGPrgErr | flctl.IFGPrg)
		return
	}

	existing := s.flash[addr/flctl.WordSize]
	if prg&flctl.PrgCtlVerPre != 0 && ^v&^existing != 0 {
		s.raise(flctl.IFGAvPre | flctl.IFGPrg)
		return
	}

	s.stats.ProgramPulses++
	next := s.pulse(addr, v)

	flags := flctl.IFGPrg
	if prg&flctl.PrgCtlVerPst != 0 && next&^v != 0 {
		flags |= flctl.IFGAvPst
	}
	s.raise(flags)
}

// burst runs a program burst from the burst data registers.
func (s *Sim) burst() {
	var reg uint32 = flctl.PrgBrstCtlStatAddr
	ctl := flctl.PrgBrstCtl(s.regs[reg])
	ctl &^= flctl.PrgBrstStatusMask
	defer func() {
		s.regs[reg] = uint32(ctl)
		s.raise(flctl.IFGPrgB)
	}()

	if ctl&flctl.PrgBrstTypeMask != flctl.PrgBrstTypeMain {
		ctl |= flctl.PrgBrstAddrErr
		return
	}

	start := s.regs[flctl.PrgBrstStartAddr]
	n := ctl.Len() * 4
	data := make([]uint32, n)
	for i := range data {
		data[i] = s.regs[flctl.PrgBrstDataAddr(i)]
	}

	// Words ahead of a reserved or out of range address still program.
	valid := 0
	for ; valid < n; valid++ {
		a := start + uint32(valid)*flctl.WordSize
		if a > flctl.OffsetMax || s.isReserved(a) {
			ctl |= flctl.PrgBrstAddrErr
			break
		}
	}

	if ctl&flctl.PrgBrstAutoPre != 0 {
		for i := 0; i < valid; i++ {
			existing := s.flash[(start/flctl.WordSize)+uint32(i)]
			if ^data[i]&^existing != 0 {
				ctl |= flctl.PrgBrstPreErr
				return
			}
		}
	}

	if valid == 0 {
		return
	}
	s.stats.BurstPulses++
	for i := 0; i < valid; i++ {
		a := start + uint32(i)*flctl.WordSize
		if data[i] == flctl.ErasedWord {
			continue
		}
		if s.locked(a) {
			s.raise(flctl.IFGPrgErr)
			continue
		}
		next := s.pulse(a, data[i])
		if ctl&flctl.PrgBrstAutoPst != 0 && next&^data[i] != 0 {
			ctl |= flctl.PrgBrstPstErr
		}
	}
}

// erase runs a sector or mass erase of main memory.
func (s *Sim) erase() {
	var reg uint32 = flctl.EraseCtlStatAddr
	ctl := flctl.EraseCtl(s.regs[reg])
	ctl &^= flctl.EraseStatusMask | flctl.EraseAddrErr
	defer func() {
		s.regs[reg] = uint32(ctl)
		s.raise(flctl.IFGErase)
	}()

	if ctl&flctl.EraseTypeMask != flctl.EraseTypeMain {
		ctl |= flctl.EraseAddrErr
		return
	}

	if ctl&flctl.EraseMode != 0 {
		s.stats.ErasePulses++
		for base := uint32(0); base < flctl.FlashSize; base += flctl.SectorSize {
			if !s.locked(base) && !s.isReserved(base) {
				s.eraseSector(base)
			}
		}
		ctl |= flctl.EraseStatusDone
		return
	}

	base := flctl.SectorBase(s.regs[flctl.EraseSectAddr])
	if base > flctl.OffsetMax || s.isReserved(base) {
		ctl |= flctl.EraseAddrErr
		return
	}
	s.stats.ErasePulses++
	if !s.locked(base) {
		s.eraseSector(base)
	}
	ctl |= flctl.EraseStatusDone
}

func (s *Sim) eraseSector(base uint32) {
	first := base / flctl.WordSize
	for i := uint32(0); i < flctl.SectorSize/flctl.WordSize; i++ {
		s.flash[first+i] = flctl.ErasedWord
	}
	if n := s.stubborn[base]; n > 0 {
		s.flash[first] = 0xFFFFFFFE
		s.stubborn[base] = n - 1
	}
}

// compare runs a read burst compare against all ones or all zeros.
func (s *Sim) compare() {
	var reg uint32 = flctl.RdBrstCtlStatAddr
	ctl := flctl.RdBrstCtl(s.regs[reg])
	ctl &^= flctl.RdBrstStatusMask
	defer func() {
		s.regs[reg] = uint32(ctl)
		s.raise(flctl.IFGRdBrst)
	}()

	s.stats.Compares++
	pattern := uint32(0)
	if ctl&flctl.RdBrstDataCmp != 0 {
		pattern = flctl.ErasedWord
	}

	start := s.regs[flctl.RdBrstStartAddr] &^ (flctl.WordSize - 1)
	length := s.regs[flctl.RdBrstLenAddr]
	for off := uint32(0); off < length; off += flctl.WordSize {
		a := start + off
		if a > flctl.OffsetMax || s.isReserved(a) {
			ctl |= flctl.RdBrstAddrErr
			return
		}
		if s.flash[a/flctl.WordSize] != pattern {
			if s.regs[flctl.RdBrstFailCntAddr] == 0 {
				s.regs[flctl.RdBrstFailAddr] = a
			}
			s.regs[flctl.RdBrstFailCntAddr]++
			ctl |= flctl.RdBrstCmpErr
			if ctl&flctl.RdBrstStopFail != 0 {
				return
			}
		}
	}
}

// Word returns the flash word at addr without going through the controller.
func (s *Sim) Word(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash[(addr%flctl.FlashSize)/flctl.WordSize]
}

// Words returns n flash words starting at addr.
func (s *Sim) Words(addr uint32, n int) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, n)
	for i := range out {
		out[i] = s.flash[((addr+uint32(i)*flctl.WordSize)%flctl.FlashSize)/flctl.WordSize]
	}
	return out
}

// Fill writes words directly into the array starting at addr, bypassing
// the controller. It is meant for preparing state.
func (s *Sim) Fill(addr uint32, words []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr%flctl.WordSize != 0 {
		return fmt.Errorf("fill 0x%08X: %w", addr, ErrMisaligned)
	}
	if uint64(addr)+uint64(len(words))*flctl.WordSize > flctl.FlashSize {
		return fmt.Errorf("fill 0x%08X: %w", addr, ErrUnmapped)
	}
	copy(s.flash[addr/flctl.WordSize:], words)
	return nil
}

// Register returns the raw value of an FLCTL register.
func (s *Sim) Register(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRegister(addr)
}

// SetRegister writes a register as the CPU would.
func (s *Sim) SetRegister(addr, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeRegister(addr, value)
}

// Stats returns the pulse counters.
func (s *Sim) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Stores returns a copy of the store log.
func (s *Sim) Stores() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Access, len(s.log))
	copy(out, s.log)
	return out
}

// ResetLog clears the store log and the pulse counters.
func (s *Sim) ResetLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	s.stats = Stats{}
}
