package flash

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-flctl/flctl"
)

// Sentinel errors matched by the structured error types through errors.Is.
var (
	// ErrInvalidAddress reports an alignment or range violation
	ErrInvalidAddress = errors.New("invalid flash address")

	// ErrBankConflict reports a target in the bank holding the running code
	ErrBankConflict = errors.New("flash bank conflict")

	// ErrVerifyExhausted reports that the pulse cap was exceeded
	ErrVerifyExhausted = errors.New("flash verify retries exhausted")

	// ErrRegionLock reports a burst into a reserved region
	ErrRegionLock = errors.New("flash burst hit reserved memory")

	// ErrTimeout reports a controller flag that never asserted
	ErrTimeout = errors.New("flash controller timeout")
)

// AddressError indicates that an address failed validation.
// No register was touched.
type AddressError struct {
	Op     string
	Addr   uint32
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("%s: invalid address 0x%08X: %s", e.Op, e.Addr, e.Reason)
}

func (e *AddressError) Is(target error) bool { return target == ErrInvalidAddress }

// BankConflictError indicates that the target lies in the bank the calling
// code executes from.
type BankConflictError struct {
	Op       string
	Addr     uint32
	ExecAddr uint32
	Bank     flctl.Bank
}

func (e *BankConflictError) Error() string {
	return fmt.Sprintf("%s: address 0x%08X is in %s, which holds the running code (0x%08X)",
		e.Op, e.Addr, e.Bank, e.ExecAddr)
}

func (e *BankConflictError) Is(target error) bool { return target == ErrBankConflict }

// VerifyError indicates that program or erase verification still failed
// after the pulse cap. The flash may be left partially programmed or erased.
type VerifyError struct {
	Op     string
	Addr   uint32
	Pulses int
	Limit  int
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("%s: verify failed at 0x%08X after %d pulses (limit %d)",
		e.Op, e.Addr, e.Pulses, e.Limit)
}

func (e *VerifyError) Is(target error) bool { return target == ErrVerifyExhausted }

// RegionLockError indicates that the burst hardware terminated because the
// range touches reserved memory. Words before the reserved address may have
// been programmed.
type RegionLockError struct {
	Addr  uint32
	Count int
}

func (e *RegionLockError) Error() string {
	return fmt.Sprintf("fast write: %d words at 0x%08X overlap reserved memory", e.Count, e.Addr)
}

func (e *RegionLockError) Is(target error) bool { return target == ErrRegionLock }

// TimeoutError indicates that a controller flag did not assert in time.
type TimeoutError struct {
	Op      string
	Waiting string

	// Timeout is the PollWaiter bound. It is zero when a custom Waiter
	// gave up, since only the Waiter knows its own limit.
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: timed out after %s waiting for %s", e.Op, e.Timeout, e.Waiting)
	}
	return fmt.Sprintf("%s: timed out waiting for %s", e.Op, e.Waiting)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ResultCode maps err onto the C API result codes:
// flctl.NOERROR for nil, flctl.ERROR otherwise.
func ResultCode(err error) int {
	if err == nil {
		return flctl.NOERROR
	}
	return flctl.ERROR
}

// IsVerifyError returns true if err is or wraps a VerifyError.
func IsVerifyError(err error) bool {
	var ve *VerifyError
	return errors.As(err, &ve)
}
