package image

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/marcinbor85/gohex"
)

// HexLineLength is the number of data bytes per record written by Dump.
const HexLineLength = 16

// Parse reads an Intel HEX file from disk.
//
// Example:
//
//	img, err := image.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Parse(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file)
}

// ParseReader reads Intel HEX from r.
func ParseReader(r io.Reader) (*Image, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("parse intel hex: %w", err)
	}

	img := &Image{}
	for _, seg := range mem.GetDataSegments() {
		if len(seg.Data) == 0 {
			continue
		}
		data := make([]byte, len(seg.Data))
		copy(data, seg.Data)
		img.Segments = append(img.Segments, Segment{Addr: seg.Address, Data: data})
	}
	if len(img.Segments) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(img.Segments, func(i, j int) bool {
		return img.Segments[i].Addr < img.Segments[j].Addr
	})

	return img, nil
}

// Dump writes img to w as Intel HEX.
func Dump(w io.Writer, img *Image) error {
	mem := gohex.NewMemory()
	for _, seg := range img.Segments {
		if err := mem.AddBinary(seg.Addr, seg.Data); err != nil {
			return fmt.Errorf("add segment 0x%08X: %w", seg.Addr, err)
		}
	}
	if err := mem.DumpIntelHex(w, HexLineLength); err != nil {
		return fmt.Errorf("write intel hex: %w", err)
	}
	return nil
}
