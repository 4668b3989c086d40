package image

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-flctl/flctl"
)

// Target is the flash interface the programmer needs. *flash.Engine
// implements it.
type Target interface {
	Erase(ctx context.Context, addr uint32) error
	WriteArray(ctx context.Context, src []uint32, addr uint32) (int, error)
	FastWrite(ctx context.Context, src []uint32, addr uint32) (int, error)
	ReadArray(ctx context.Context, addr uint32, n int) ([]uint32, error)
}

// Programmer writes firmware images to flash.
type Programmer struct {
	target Target
	config Config
}

// NewProgrammer creates a Programmer for the given target.
//
// Example:
//
//	eng := flash.New(bus)
//	prog := image.NewProgrammer(eng, image.WithBurst(false))
func NewProgrammer(target Target, opts ...Option) *Programmer {
	if target == nil {
		panic("target cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		target: target,
		config: cfg,
	}
}

// Program performs the complete programming sequence:
//  1. Check that every block lies in main flash
//  2. Erase the sectors the image touches
//  3. Program all words, burst writing where aligned
//  4. Read the image back and compare
//
// The operation can be cancelled via context.
func (p *Programmer) Program(ctx context.Context, img *Image) error {
	if img == nil {
		return fmt.Errorf("image cannot be nil")
	}

	startTime := time.Now()
	blocks := img.Blocks()
	for _, blk := range blocks {
		if uint64(blk.Addr)+uint64(len(blk.Words))*flctl.WordSize > flctl.FlashSize {
			return &OutOfRangeError{Addr: blk.Addr, End: blk.End()}
		}
	}

	totalWords := 0
	for _, blk := range blocks {
		totalWords += len(blk.Words)
	}

	// Phase 1: erase
	if p.config.Erase {
		sectors := img.Sectors()
		for i, base := range sectors {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cancelled: %w", err)
			}
			if err := p.target.Erase(ctx, base); err != nil {
				return fmt.Errorf("erase sector 0x%08X: %w", base, err)
			}
			p.reportProgress(Progress{
				Phase:       PhaseErasing,
				Current:     i + 1,
				Total:       len(sectors),
				Percentage:  float64(i+1) / float64(len(sectors)) * 20,
				ElapsedTime: time.Since(startTime),
			})
		}
		p.logDebug("sectors erased", "count", len(sectors))
	}

	// Phase 2: program
	written := 0
	for _, blk := range blocks {
		for off := 0; off < len(blk.Words); {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("cancelled: %w", err)
			}

			addr := blk.Addr + uint32(off)*flctl.WordSize
			n, err := p.programChunk(ctx, addr, blk.Words[off:])
			if err != nil {
				return fmt.Errorf("program 0x%08X: %w", addr, err)
			}
			off += n
			written += n

			p.reportProgress(Progress{
				Phase:        PhaseProgramming,
				Current:      written,
				Total:        totalWords,
				Percentage:   20 + float64(written)/float64(totalWords)*70,
				BytesWritten: written * flctl.WordSize,
				ElapsedTime:  time.Since(startTime),
			})
		}
	}

	// Phase 3: verify
	if p.config.VerifyAfterProgram {
		verified := 0
		for _, blk := range blocks {
			if err := p.verifyBlock(ctx, blk); err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			verified += len(blk.Words)
			p.reportProgress(Progress{
				Phase:        PhaseVerifying,
				Current:      verified,
				Total:        totalWords,
				Percentage:   90 + float64(verified)/float64(totalWords)*10,
				BytesWritten: written * flctl.WordSize,
				ElapsedTime:  time.Since(startTime),
			})
		}
	}

	p.reportProgress(Progress{
		Phase:        PhaseComplete,
		Current:      totalWords,
		Total:        totalWords,
		Percentage:   100,
		BytesWritten: written * flctl.WordSize,
		ElapsedTime:  time.Since(startTime),
	})

	p.logInfo("programming complete",
		"blocks", len(blocks),
		"bytes", written*flctl.WordSize,
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

// programChunk programs the next run of words at addr and returns how many
// it wrote. Aligned runs go through the burst hardware; anything else is
// written word by word up to the next burst boundary.
func (p *Programmer) programChunk(ctx context.Context, addr uint32, words []uint32) (int, error) {
	if p.config.Burst && addr%flctl.BurstAlign == 0 {
		n := len(words)
		if n > flctl.BurstWords {
			n = flctl.BurstWords
		}
		bankEnd := flctl.BankOf(addr).Max() + 1
		if room := int((bankEnd - addr) / flctl.WordSize); n > room {
			n = room
		}
		written, err := p.target.FastWrite(ctx, words[:n], addr)
		if err != nil {
			return written, err
		}
		p.logDebug("burst written", "addr", fmt.Sprintf("0x%08X", addr), "words", written)
		return written, nil
	}

	n := len(words)
	if p.config.Burst {
		toBoundary := int((flctl.BurstAlign - addr%flctl.BurstAlign) / flctl.WordSize)
		if n > toBoundary {
			n = toBoundary
		}
	}
	return p.target.WriteArray(ctx, words[:n], addr)
}

// verifyBlock reads blk back and compares it word by word.
func (p *Programmer) verifyBlock(ctx context.Context, blk Block) error {
	got, err := p.target.ReadArray(ctx, blk.Addr, len(blk.Words))
	if err != nil {
		return err
	}
	for i, want := range blk.Words {
		if got[i] != want {
			return &VerifyMismatchError{
				Addr:     blk.Addr + uint32(i)*flctl.WordSize,
				Expected: want,
				Actual:   got[i],
			}
		}
	}
	return nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}
