package flash

import (
	"context"
	"errors"
	"testing"

	"github.com/moffa90/go-flctl/flashsim"
	"github.com/moffa90/go-flctl/flctl"
)

func seq(n int, base uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = base + uint32(i)
	}
	return out
}

func TestFastWrite(t *testing.T) {
	tests := []struct {
		name       string
		addr       uint32
		src        []uint32
		wantN      int
		wantBursts int
	}{
		{"one word", 0x00020000, seq(1, 0x100), 1, 1},
		{"ten words", 0x00020040, seq(10, 0x200), 10, 1},
		{"full burst", 0x00020080, seq(16, 0x300), 16, 1},
		{"clamped to sixteen", 0x000200C0, seq(20, 0x400), 16, 1},
		{"top of flash", 0x0003FFC0, seq(16, 0x500), 16, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, sim := newTestEngine(t)

			n, err := eng.FastWrite(context.Background(), tt.src, tt.addr)
			if err != nil {
				t.Fatalf("FastWrite() error = %v", err)
			}
			if n != tt.wantN {
				t.Errorf("FastWrite() n = %d, want %d", n, tt.wantN)
			}
			for i, w := range sim.Words(tt.addr, tt.wantN) {
				if w != tt.src[i] {
					t.Errorf("word %d = 0x%08X, want 0x%08X", i, w, tt.src[i])
				}
			}
			if tt.wantN < 16 {
				if got := sim.Word(tt.addr + uint32(tt.wantN)*4); got != flctl.ErasedWord {
					t.Errorf("word past the burst = 0x%08X, want erased", got)
				}
			}
			if got := sim.Stats().BurstPulses; got != tt.wantBursts {
				t.Errorf("bursts = %d, want %d", got, tt.wantBursts)
			}
			assertLocked(t, sim, flctl.Bank1, 0xFFFFFFFF)
		})
	}
}

func TestFastWriteUnlocksLastSector(t *testing.T) {
	eng, sim := newTestEngine(t)

	// A 16 word burst never crosses a sector, but the lock mask must still
	// cover the last word.
	if _, err := eng.FastWrite(context.Background(), seq(16, 1), 0x20FC0); err != nil {
		t.Fatalf("FastWrite() error = %v", err)
	}
	if got := sim.Word(0x20FFC); got != 16 {
		t.Errorf("last word = 0x%08X, want 0x10", got)
	}
	assertLocked(t, sim, flctl.Bank1, 0xFFFFFFFF)
}

func TestFastWriteZeroCount(t *testing.T) {
	eng, sim := newTestEngine(t)

	n, err := eng.FastWrite(context.Background(), nil, 0x20000)
	if n != 0 || err != nil {
		t.Errorf("FastWrite(nil) = %d, %v", n, err)
	}
	if len(sim.Stores()) != 0 {
		t.Error("empty burst touched the bus")
	}
}

func TestFastWriteRejects(t *testing.T) {
	tests := []struct {
		name    string
		addr    uint32
		count   int
		opts    []Option
		wantErr error
	}{
		{"word aligned only", 0x00020004, 4, nil, ErrInvalidAddress},
		{"runs past flash", 0x0003FFF0, 16, nil, ErrInvalidAddress},
		{"crosses banks", 0x0001FFF0, 8, []Option{WithExecAddress(func() uint32 { return 0x20000000 })}, ErrInvalidAddress},
		{"executing bank", 0x00001000, 4, nil, ErrBankConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, sim := newTestEngine(t, tt.opts...)

			n, err := eng.FastWrite(context.Background(), seq(tt.count, 0), tt.addr)
			if n != 0 || !errors.Is(err, tt.wantErr) {
				t.Fatalf("FastWrite() = %d, %v, want 0, %v", n, err, tt.wantErr)
			}
			if len(sim.Stores()) != 0 {
				t.Error("rejected burst touched the bus")
			}
		})
	}
}

func TestFastWriteHeals(t *testing.T) {
	t.Run("pre-verify", func(t *testing.T) {
		eng, sim := newTestEngine(t)
		sim.Fill(0x20100, []uint32{0xDEADBEEF, 0xFFFF0000})
		src := []uint32{0xDEAD0000, 0xF0F00000, 0x12345678}

		n, err := eng.FastWrite(context.Background(), src, 0x20100)
		if n != 3 || err != nil {
			t.Fatalf("FastWrite() = %d, %v", n, err)
		}
		for i, w := range sim.Words(0x20100, 3) {
			if w != src[i] {
				t.Errorf("word %d = 0x%08X, want 0x%08X", i, w, src[i])
			}
		}
	})

	t.Run("post-verify", func(t *testing.T) {
		eng, sim := newTestEngine(t)
		sim.WeakBits(0x20104, 0xFF00, 2)
		src := []uint32{0, 0, 0, 0}

		n, err := eng.FastWrite(context.Background(), src, 0x20100)
		if n != 4 || err != nil {
			t.Fatalf("FastWrite() = %d, %v", n, err)
		}
		if got := sim.Word(0x20104); got != 0 {
			t.Errorf("weak word = 0x%08X, want 0", got)
		}
		if got := sim.Stats().BurstPulses; got != 3 {
			t.Errorf("bursts = %d, want 3", got)
		}
	})
}

func TestFastWriteExhausted(t *testing.T) {
	eng, sim := newTestEngine(t)
	sim.Fill(0x20104, []uint32{0})
	src := []uint32{0x1234, 0xFFFFFFFF, 0x5678}

	n, err := eng.FastWrite(context.Background(), src, 0x20100)

	if !errors.Is(err, ErrVerifyExhausted) {
		t.Fatalf("FastWrite() error = %v, want verify failure", err)
	}
	if n != 2 {
		t.Errorf("FastWrite() n = %d, want 2 settled words", n)
	}
	var ve *VerifyError
	if errors.As(err, &ve) && ve.Op != "fast write" {
		t.Errorf("VerifyError.Op = %q", ve.Op)
	}
	if got := sim.Stats().BurstPulses; got != flctl.MaxProgramPulses+1 {
		t.Errorf("bursts = %d, want %d", got, flctl.MaxProgramPulses+1)
	}
	assertLocked(t, sim, flctl.Bank1, 0xFFFFFFFF)
}

func TestFastWriteReserved(t *testing.T) {
	eng, sim := newTestEngine(t)
	sim.Reserve(0x20108, 8)

	n, err := eng.FastWrite(context.Background(), seq(8, 1), 0x20100)

	var rle *RegionLockError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RegionLockError, got %T: %v", err, err)
	}
	if n != 0 {
		t.Errorf("FastWrite() n = %d, want 0", n)
	}
	if rle.Addr != 0x20100 || rle.Count != 8 {
		t.Errorf("RegionLockError = %+v", rle)
	}
	if got := sim.Word(0x20100); got != 1 {
		t.Errorf("prefix word = 0x%08X, want 1", got)
	}
	if flctl.PrgBrstCtl(sim.Register(flctl.PrgBrstCtlStatAddr))&flctl.PrgBrstStatusMask != 0 {
		t.Error("burst status left set")
	}
	assertLocked(t, sim, flctl.Bank1, 0xFFFFFFFF)
}

func TestFastWriteReservedPreservesLockState(t *testing.T) {
	eng, sim := newTestEngine(t)
	mixed := uint32(0xFFFFFFFF) &^ flctl.SectorBit(flctl.Bank1, 0x20100)
	sim.SetRegister(flctl.MainWEProtAddr(flctl.Bank1), mixed)
	sim.Reserve(0x20108, 8)

	_, err := eng.FastWrite(context.Background(), seq(8, 1), 0x20100)

	var rle *RegionLockError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RegionLockError, got %T: %v", err, err)
	}
	assertLocked(t, sim, flctl.Bank1, mixed)
}

func TestFastWriteTimeout(t *testing.T) {
	eng, sim := newTestEngine(t, WithWaitTimeout(testTimeout))
	sim.Stall(flctl.IFGPrgB)

	_, err := eng.FastWrite(context.Background(), seq(4, 0), 0x20000)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("FastWrite() error = %v, want timeout", err)
	}
	assertLocked(t, sim, flctl.Bank1, 0xFFFFFFFF)
}

func BenchmarkFastWrite(b *testing.B) {
	eng := New(flashsim.New())
	ctx := context.Background()
	src := seq(16, 0)
	const bursts = flctl.SectorSize / 64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if i%bursts == 0 {
			if err := eng.Erase(ctx, 0x20000); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := eng.FastWrite(ctx, src, 0x20000+uint32(i%bursts)*64); err != nil {
			b.Fatal(err)
		}
	}
}
