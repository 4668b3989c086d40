package flash

import "github.com/moffa90/go-flctl/flctl"

// WriteAddrValid reports whether addr can be word programmed:
// 4-byte aligned and within main memory.
func WriteAddrValid(addr uint32) bool {
	return addr%flctl.WordSize == 0 && addr <= flctl.OffsetMax
}

// MassWriteAddrValid reports whether count words starting at addr can be
// burst programmed: 16-byte aligned, and both addr and the last byte of the
// range within main memory. The caller limits count to 16.
func MassWriteAddrValid(addr uint32, count int) bool {
	if addr%flctl.BurstAlign != 0 || addr > flctl.OffsetMax || count < 0 {
		return false
	}
	if count == 0 {
		return true
	}
	last := uint64(addr) + flctl.WordSize*uint64(count) - 1
	return last <= flctl.OffsetMax
}

// EraseAddrValid reports whether addr starts a sector within main memory.
func EraseAddrValid(addr uint32) bool {
	return addr%flctl.SectorSize == 0 && addr <= flctl.OffsetMax
}

// IsInBank0 reports whether addr lies in bank 0.
func IsInBank0(addr uint32) bool {
	return addr <= flctl.Bank0Max
}

// IsInBank1 reports whether addr lies in bank 1.
func IsInBank1(addr uint32) bool {
	return flctl.Bank1Min <= addr && addr <= flctl.Bank1Max
}
