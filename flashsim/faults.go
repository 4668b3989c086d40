package flashsim

import "github.com/moffa90/go-flctl/flctl"

type weakCell struct {
	mask   uint32
	pulses int
}

type region struct {
	start, end uint32 // end is exclusive
}

// WeakBits makes the bits of mask in the word at addr resist programming
// for the given number of pulses.
func (s *Sim) WeakBits(addr, mask uint32, pulses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weak[addr&^(flctl.WordSize-1)] = &weakCell{mask: mask, pulses: pulses}
}

// StubbornSector makes the next pulses erases of the sector holding addr
// leave its first word at 0xFFFFFFFE.
func (s *Sim) StubbornSector(addr uint32, pulses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubborn[flctl.SectorBase(addr)] = pulses
}

// Reserve marks [addr, addr+size) as reserved memory. Bursts, erases and
// compares that reach it stop with an address error; word programs fail
// with PRG_ERR.
func (s *Sim) Reserve(addr, size uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reserved = append(s.reserved, region{start: addr, end: addr + size})
}

func (s *Sim) isReserved(addr uint32) bool {
	for _, r := range s.reserved {
		if addr >= r.start && addr < r.end {
			return true
		}
	}
	return false
}

// Stall stops the controller from raising flags. Stall(0) resumes.
func (s *Sim) Stall(flags flctl.IFG) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalled = flags
}

// FailStore makes the next store to addr fail with err.
func (s *Sim) FailStore(addr uint32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeFault[addr] = err
}

// Reset erases the array, restores register reset values and removes all
// injected faults.
func (s *Sim) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.flash {
		s.flash[i] = flctl.ErasedWord
	}
	s.resetRegisters()
	s.weak = make(map[uint32]*weakCell)
	s.stubborn = make(map[uint32]int)
	s.storeFault = make(map[uint32]error)
	s.reserved = nil
	s.stalled = 0
	s.log = nil
	s.stats = Stats{}
}
