// Package flctl describes the MSP432P401R flash controller (FLCTL).
//
// # Overview
//
// This package holds the datasheet side of the flash engine: the main
// memory geometry, the addresses of the FLCTL registers the engine touches,
// and one small bit-field type per control/status register. Nothing in
// here performs I/O; the engine in package flash reads and writes these
// registers through an injected bus.
//
// # Geometry
//
// Main memory is 256 KiB split into two banks of 128 KiB:
//
//	Bank 0: 0x00000000 - 0x0001FFFF
//	Bank 1: 0x00020000 - 0x0003FFFF
//
// Each bank holds 32 sectors of 4 KiB. A sector is the erase unit and maps
// to one bit of the bank's main memory write/erase protection register.
// A 32-bit word is the program unit.
//
// # Register Types
//
// Control/status registers are modelled as named uint32 types with their
// bit-fields as constants of that type:
//
//	ctl := flctl.PrgCtlEnable | flctl.PrgCtlVerPre | flctl.PrgCtlVerPst
//	bus.Store(flctl.PrgCtlStatAddr, uint32(ctl))
//
// Field accessors such as RdCtl.ModeStatus decode the multi-bit fields.
package flctl
