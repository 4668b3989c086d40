// Package flashsim simulates the MSP432P401R flash controller.
//
// A Sim holds the 256 KiB main memory array and the FLCTL register block
// and implements the flash.Bus interface, so the flash engine, the monitor
// server and the command line tool can run without hardware.
//
// The model follows the controller at the level the engine observes it:
//
//   - word programming in immediate mode with automatic pre- and
//     post-program verify (AVPRE, AVPST, PRG, PRG_ERR)
//   - burst programming of up to four 128-bit bursts (PRE_ERR, PST_ERR,
//     ADDR_ERR, PRGB)
//   - sector erase (ERASE) and read burst compare (FAILCNT, FAILADDR,
//     RDBRST)
//   - per-sector write/erase protection through BANKn_MAIN_WEPROT
//   - read mode status that follows the requested mode immediately
//
// Programming only clears bits. Faults can be injected to exercise the
// engine's retry paths:
//
//	sim := flashsim.New()
//	sim.WeakBits(0x20000, 0x0000000F, 2)   // four bits need two extra pulses
//	sim.StubbornSector(0x21000, 3)         // three erase pulses leave a zero
//	sim.Reserve(0x3F000, 0x1000)           // bursts into it stop with ADDR_ERR
//	sim.Stall(flctl.IFGPrg)                // PRG never asserts
//
// A Sim is safe for concurrent use.
package flashsim
