package flash

import (
	"context"
	"time"
)

// Bus gives the engine word access to the flash array and the FLCTL
// registers. On the target it is plain memory-mapped I/O (see MMIO); tests
// use a simulated register file and hosts can use a monitor link.
type Bus interface {
	// Load reads the 32-bit word at addr
	Load(addr uint32) (uint32, error)

	// Store writes the 32-bit word at addr
	Store(addr, value uint32) error
}

// BlockReader is implemented by buses that fetch many words per access,
// such as a monitor link. ReadArray uses it when the bus provides it.
type BlockReader interface {
	ReadBlock(addr uint32, count int) ([]uint32, error)
}

// Waiter blocks until ready reports true.
//
// Implementations return ctx.Err() when the context ends and ErrTimeout
// when their own deadline passes.
type Waiter interface {
	Wait(ctx context.Context, ready func() bool) error
}

// PollWaiter spins on ready. A zero Timeout waits forever.
type PollWaiter struct {
	Timeout time.Duration
}

// Wait implements Waiter.
func (w PollWaiter) Wait(ctx context.Context, ready func() bool) error {
	var deadline time.Time
	if w.Timeout > 0 {
		deadline = time.Now().Add(w.Timeout)
	}

	for !ready() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrTimeout
		}
	}
	return nil
}
