package image

import (
	"errors"
	"fmt"
)

// ErrNoData is returned by ParseReader for a well-formed file without data
// records, such as a dump of erased flash.
var ErrNoData = errors.New("no data records found")

// OutOfRangeError indicates that an image block lies outside main flash.
type OutOfRangeError struct {
	Addr uint32
	End  uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("block 0x%08X-0x%08X is outside main flash", e.Addr, e.End)
}

// VerifyMismatchError indicates that a word read back differs from the image.
type VerifyMismatchError struct {
	Addr     uint32
	Expected uint32
	Actual   uint32
}

func (e *VerifyMismatchError) Error() string {
	return fmt.Sprintf("verify mismatch at 0x%08X: expected 0x%08X, got 0x%08X",
		e.Addr, e.Expected, e.Actual)
}
