package image

import (
	"sort"

	"github.com/moffa90/go-flctl/flctl"
)

// Segment is a run of contiguous bytes starting at Addr.
type Segment struct {
	Addr uint32
	Data []byte
}

// End returns the address one past the last byte of the segment.
func (s Segment) End() uint32 {
	return s.Addr + uint32(len(s.Data))
}

// Image is a firmware image made of segments sorted by address.
type Image struct {
	Segments []Segment
}

// Block is a run of contiguous words starting at a word aligned address.
type Block struct {
	Addr  uint32
	Words []uint32
}

// End returns the address one past the last byte of the block.
func (b Block) End() uint32 {
	return b.Addr + uint32(len(b.Words))*flctl.WordSize
}

// Size returns the number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, seg := range img.Segments {
		n += len(seg.Data)
	}
	return n
}

// Blocks merges the segments into word aligned blocks. Bytes not covered
// by a segment are 0xFF.
func (img *Image) Blocks() []Block {
	segs := make([]Segment, len(img.Segments))
	copy(segs, img.Segments)
	sort.Slice(segs, func(i, j int) bool { return segs[i].Addr < segs[j].Addr })

	var blocks []Block
	for _, seg := range segs {
		if len(seg.Data) == 0 {
			continue
		}
		start := seg.Addr &^ (flctl.WordSize - 1)
		end := (seg.End() + flctl.WordSize - 1) &^ (flctl.WordSize - 1)

		if len(blocks) == 0 || start > blocks[len(blocks)-1].End() {
			blocks = append(blocks, Block{Addr: start})
		}
		blk := &blocks[len(blocks)-1]
		for blk.End() < end {
			blk.Words = append(blk.Words, flctl.ErasedWord)
		}

		for i, b := range seg.Data {
			a := seg.Addr + uint32(i)
			shift := (a % flctl.WordSize) * 8
			w := &blk.Words[(a-blk.Addr)/flctl.WordSize]
			*w = *w&^(0xFF<<shift) | uint32(b)<<shift
		}
	}
	return blocks
}

// Sectors returns the base addresses of the sectors the image touches, in
// ascending order.
func (img *Image) Sectors() []uint32 {
	var sectors []uint32
	for _, blk := range img.Blocks() {
		first := flctl.SectorBase(blk.Addr)
		last := flctl.SectorBase(blk.End() - 1)
		for base := first; base <= last; base += flctl.SectorSize {
			if n := len(sectors); n > 0 && sectors[n-1] >= base {
				continue
			}
			sectors = append(sectors, base)
		}
	}
	return sectors
}

// FromWords builds an image from words read at addr, dropping runs of
// erased words.
func FromWords(addr uint32, words []uint32) *Image {
	img := &Image{}
	var cur *Segment
	for i, w := range words {
		a := addr + uint32(i)*flctl.WordSize
		if w == flctl.ErasedWord {
			cur = nil
			continue
		}
		if cur == nil {
			img.Segments = append(img.Segments, Segment{Addr: a})
			cur = &img.Segments[len(img.Segments)-1]
		}
		cur.Data = append(cur.Data, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return img
}
