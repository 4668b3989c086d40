// Command flashctl erases, programs and reads MSP432 main flash.
//
// Without --port it works on a simulated device, optionally persisted to an
// Intel HEX file with --sim-state. With --port it drives a target running
// the monitor over a serial line.
//
// Usage:
//
//	flashctl erase 0x3F000
//	flashctl erase --bank 1
//	flashctl write 0x3F000 0xDEADBEEF
//	flashctl fastwrite 0x3F000 1 2 3 4
//	flashctl read 0x3F000 4
//	flashctl program firmware.hex
//	flashctl dump --addr 0x20000 --count 1024 out.hex
//	flashctl script session.txt
//	flashctl serve --port /dev/ttyUSB0
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logOut := colorable.NewColorableStderr()
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		logOut = colorable.NewNonColorable(os.Stderr)
	}

	if err := run(ctx, os.Args[1:], os.Stdout, logOut); err != nil {
		stop()
		os.Exit(1)
	}
}
