//go:build tinygo

package flash

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the on-target Bus: every access is a volatile word load or store
// at the physical address. Code using it must run from SRAM or from the
// bank it does not program.
type MMIO struct{}

// Load implements Bus.
func (MMIO) Load(addr uint32) (uint32, error) {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr)))), nil
}

// Store implements Bus.
func (MMIO) Store(addr, value uint32) error {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), value)
	return nil
}
