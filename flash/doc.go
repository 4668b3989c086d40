// Package flash programs and erases MSP432 main flash memory in place.
//
// # Overview
//
// The Engine drives the FLCTL flash controller through an injected Bus:
//   - Write programs one 32-bit word with pre/post verify and bit healing
//   - WriteArray programs consecutive words, stopping at the first failure
//   - FastWrite programs up to 16 words with the burst program hardware
//   - Erase erases a 4 KiB sector and verifies it with a read burst compare
//
// Flash cells can only be programmed from 1 to 0. When the controller
// reports a pre-program verify error the engine masks out the bits that are
// already 0 and reprograms only what is left; after a post-program verify
// error it reprograms only the bits that did not clear. Program operations
// stop after 5 pulses, erase after 50.
//
// # Basic Usage
//
//	bus := flashsim.New() // or flash.MMIO{} on the target
//	eng := flash.New(bus)
//
//	if err := eng.Erase(ctx, 0x0003F000); err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.Write(ctx, 0x0003F000, 0xDEADBEEF); err != nil {
//	    log.Fatal(err)
//	}
//
// # Code Placement
//
// A bank cannot be reprogrammed while the CPU fetches instructions from it.
// The engine asks WithExecAddress where the calling code lives (bank 0 by
// default) and rejects targets in that bank with a BankConflictError. Code
// running from SRAM never conflicts.
//
// # Write Protection
//
// Every operation unlocks only the WEPROT bits covering its target and
// restores their previous value before returning, on success and on every
// error path.
//
// # Waiting
//
// Completion flags are polled through a Waiter. The default waits forever
// like the hardware library does; WithWaitTimeout bounds every poll and
// reports a TimeoutError instead. Context cancellation is always honoured.
//
// # Concurrency
//
// An Engine is not safe for concurrent use and must not be called from an
// interrupt handler. The lock save/restore is not atomic, so callers must
// serialize all flash operations themselves.
package flash
