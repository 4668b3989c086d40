package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-flctl/flash"
	"github.com/moffa90/go-flctl/flashsim"
)

// MockTarget records the calls a Programmer makes.
type MockTarget struct {
	calls    []string
	readBack func(addr uint32, n int) []uint32
	eraseErr error
	writeErr error
}

func (m *MockTarget) Erase(ctx context.Context, addr uint32) error {
	m.calls = append(m.calls, fmt.Sprintf("erase 0x%05X", addr))
	return m.eraseErr
}

func (m *MockTarget) WriteArray(ctx context.Context, src []uint32, addr uint32) (int, error) {
	m.calls = append(m.calls, fmt.Sprintf("write 0x%05X %d", addr, len(src)))
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return len(src), nil
}

func (m *MockTarget) FastWrite(ctx context.Context, src []uint32, addr uint32) (int, error) {
	m.calls = append(m.calls, fmt.Sprintf("burst 0x%05X %d", addr, len(src)))
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return len(src), nil
}

func (m *MockTarget) ReadArray(ctx context.Context, addr uint32, n int) ([]uint32, error) {
	if m.readBack != nil {
		return m.readBack(addr, n), nil
	}
	return make([]uint32, n), nil
}

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func wordsImage(addr uint32, n int) *Image {
	data := make([]byte, n*4)
	for i := range data {
		data[i] = byte(i)
	}
	return &Image{Segments: []Segment{{Addr: addr, Data: data}}}
}

func newSimProgrammer(opts ...Option) (*Programmer, *flashsim.Sim) {
	sim := flashsim.New()
	eng := flash.New(sim, flash.WithWaitTimeout(time.Second))
	return NewProgrammer(eng, opts...), sim
}

func TestNewProgrammerNilTarget(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewProgrammer(nil) did not panic")
		}
	}()
	NewProgrammer(nil)
}

func TestProgramChunking(t *testing.T) {
	tests := []struct {
		name  string
		img   *Image
		burst bool
		want  []string
	}{
		{
			name:  "aligned run uses bursts",
			img:   wordsImage(0x20000, 20),
			burst: true,
			want:  []string{"burst 0x20000 16", "burst 0x20040 4"},
		},
		{
			name:  "unaligned head is word programmed",
			img:   wordsImage(0x20008, 20),
			burst: true,
			want:  []string{"write 0x20008 2", "burst 0x20010 16", "burst 0x20050 2"},
		},
		{
			name:  "burst stops at the bank boundary",
			img:   wordsImage(0x1FFF0, 8),
			burst: true,
			want:  []string{"burst 0x1FFF0 4", "burst 0x20000 4"},
		},
		{
			name:  "burst disabled",
			img:   wordsImage(0x20008, 20),
			burst: false,
			want:  []string{"write 0x20008 20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &MockTarget{}
			prog := NewProgrammer(target,
				WithBurst(tt.burst),
				WithErase(false),
				WithVerifyAfterProgram(false),
			)

			if err := prog.Program(context.Background(), tt.img); err != nil {
				t.Fatalf("Program() error = %v", err)
			}
			if strings.Join(target.calls, ", ") != strings.Join(tt.want, ", ") {
				t.Errorf("calls = %v, want %v", target.calls, tt.want)
			}
		})
	}
}

func TestProgramErasesTouchedSectors(t *testing.T) {
	target := &MockTarget{}
	img := &Image{Segments: []Segment{
		{Addr: 0x20FFC, Data: make([]byte, 8)},
		{Addr: 0x25000, Data: make([]byte, 4)},
	}}
	prog := NewProgrammer(target, WithVerifyAfterProgram(false))

	if err := prog.Program(context.Background(), img); err != nil {
		t.Fatalf("Program() error = %v", err)
	}

	want := []string{"erase 0x20000", "erase 0x21000", "erase 0x25000"}
	for i, w := range want {
		if i >= len(target.calls) || target.calls[i] != w {
			t.Fatalf("calls = %v, want prefix %v", target.calls, want)
		}
	}
}

func TestProgramSimulator(t *testing.T) {
	prog, sim := newSimProgrammer()

	// garbage in a sector the image touches must be erased
	if err := sim.Fill(0x21100, []uint32{0}); err != nil {
		t.Fatal(err)
	}

	img, err := ParseReader(strings.NewReader(testHex))
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Program(context.Background(), img); err != nil {
		t.Fatalf("Program() error = %v", err)
	}

	checks := []struct {
		addr uint32
		want uint32
	}{
		{0x20000, 0xDEADBEEF},
		{0x20004, 0x12345678},
		{0x20008, 0xFFFFFFFF},
		{0x21000, 0xBBAAFFFF},
		{0x21100, 0xFFFFFFFF},
	}
	for _, c := range checks {
		if got := sim.Word(c.addr); got != c.want {
			t.Errorf("word 0x%05X = 0x%08X, want 0x%08X", c.addr, got, c.want)
		}
	}

	stats := sim.Stats()
	if stats.ErasePulses != 2 {
		t.Errorf("ErasePulses = %d, want 2", stats.ErasePulses)
	}
	if stats.BurstPulses == 0 {
		t.Error("no burst reached the array")
	}
}

func TestProgramWithoutBurst(t *testing.T) {
	prog, sim := newSimProgrammer(WithBurst(false))

	if err := prog.Program(context.Background(), wordsImage(0x30000, 8)); err != nil {
		t.Fatalf("Program() error = %v", err)
	}

	stats := sim.Stats()
	if stats.BurstPulses != 0 {
		t.Errorf("BurstPulses = %d, want 0", stats.BurstPulses)
	}
	if stats.ProgramPulses != 8 {
		t.Errorf("ProgramPulses = %d, want 8", stats.ProgramPulses)
	}
	if got := sim.Word(0x30004); got != 0x07060504 {
		t.Errorf("word 0x30004 = 0x%08X, want 0x07060504", got)
	}
}

func TestProgramProgress(t *testing.T) {
	var phases []string
	var last Progress
	prog, _ := newSimProgrammer(WithProgressCallback(func(p Progress) {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
		if p.Percentage < last.Percentage {
			t.Errorf("progress went backwards: %.1f after %.1f", p.Percentage, last.Percentage)
		}
		last = p
	}))

	if err := prog.Program(context.Background(), wordsImage(0x20000, 40)); err != nil {
		t.Fatalf("Program() error = %v", err)
	}

	want := []string{PhaseErasing, PhaseProgramming, PhaseVerifying, PhaseComplete}
	if strings.Join(phases, ",") != strings.Join(want, ",") {
		t.Errorf("phases = %v, want %v", phases, want)
	}
	if last.Percentage != 100 {
		t.Errorf("final percentage = %.1f, want 100", last.Percentage)
	}
	if last.BytesWritten != 160 {
		t.Errorf("BytesWritten = %d, want 160", last.BytesWritten)
	}
}

func TestProgramErrors(t *testing.T) {
	writeErr := errors.New("bus fault")

	tests := []struct {
		name   string
		img    *Image
		target *MockTarget
		check  func(t *testing.T, err error)
	}{
		{
			name:   "nil image",
			img:    nil,
			target: &MockTarget{},
			check: func(t *testing.T, err error) {
				if !strings.Contains(err.Error(), "image cannot be nil") {
					t.Errorf("error = %v", err)
				}
			},
		},
		{
			name:   "beyond main flash",
			img:    &Image{Segments: []Segment{{Addr: 0x3FFFE, Data: make([]byte, 4)}}},
			target: &MockTarget{},
			check: func(t *testing.T, err error) {
				var rangeErr *OutOfRangeError
				if !errors.As(err, &rangeErr) {
					t.Fatalf("error = %v, want OutOfRangeError", err)
				}
				if rangeErr.Addr != 0x3FFFC {
					t.Errorf("Addr = 0x%X, want 0x3FFFC", rangeErr.Addr)
				}
			},
		},
		{
			name:   "erase failure",
			img:    wordsImage(0x20000, 4),
			target: &MockTarget{eraseErr: flash.ErrTimeout},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, flash.ErrTimeout) {
					t.Errorf("error = %v, want ErrTimeout", err)
				}
				if !strings.Contains(err.Error(), "erase sector 0x00020000") {
					t.Errorf("error = %v, want sector address", err)
				}
			},
		},
		{
			name:   "write failure",
			img:    wordsImage(0x20000, 4),
			target: &MockTarget{writeErr: writeErr},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, writeErr) {
					t.Errorf("error = %v, want %v", err, writeErr)
				}
			},
		},
		{
			name:   "readback mismatch",
			img:    wordsImage(0x20000, 4),
			target: &MockTarget{},
			check: func(t *testing.T, err error) {
				var mismatch *VerifyMismatchError
				if !errors.As(err, &mismatch) {
					t.Fatalf("error = %v, want VerifyMismatchError", err)
				}
				if mismatch.Addr != 0x20000 || mismatch.Expected != 0x03020100 || mismatch.Actual != 0 {
					t.Errorf("mismatch = %+v", mismatch)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProgrammer(tt.target).Program(context.Background(), tt.img)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.check(t, err)
		})
	}
}

func TestProgramBankConflict(t *testing.T) {
	prog, _ := newSimProgrammer()

	err := prog.Program(context.Background(), wordsImage(0x1000, 4))
	if !errors.Is(err, flash.ErrBankConflict) {
		t.Errorf("error = %v, want ErrBankConflict", err)
	}
}

func TestProgramCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &MockTarget{}
	err := NewProgrammer(target).Program(ctx, wordsImage(0x20000, 4))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(target.calls) != 0 {
		t.Errorf("target was called after cancel: %v", target.calls)
	}
}

func TestProgramLogging(t *testing.T) {
	logger := &MockLogger{}
	prog, _ := newSimProgrammer(WithLogger(logger))

	if err := prog.Program(context.Background(), wordsImage(0x20000, 16)); err != nil {
		t.Fatalf("Program() error = %v", err)
	}
	if len(logger.infoMsgs) == 0 || logger.infoMsgs[len(logger.infoMsgs)-1] != "programming complete" {
		t.Errorf("info messages = %v, want a final \"programming complete\"", logger.infoMsgs)
	}
}

func BenchmarkProgram(b *testing.B) {
	img := wordsImage(0x20000, 1024)
	for i := 0; i < b.N; i++ {
		prog, _ := newSimProgrammer()
		if err := prog.Program(context.Background(), img); err != nil {
			b.Fatal(err)
		}
	}
}
