package image

import "time"

// Progress phases.
const (
	PhaseErasing     = "erasing"
	PhaseProgramming = "programming"
	PhaseVerifying   = "verifying"
	PhaseComplete    = "complete"
)

// Progress contains information about the programming progress.
// Passed to ProgressCallback during Program.
type Progress struct {
	// Phase describes the current operation phase:
	//   "erasing"     - Erasing the sectors the image touches
	//   "programming" - Programming words
	//   "verifying"   - Reading the image back
	//   "complete"    - Operation completed successfully
	Phase string

	// Current is the number of sectors erased, or words programmed or
	// verified, so far in this phase
	Current int

	// Total is the number of sectors or words in this phase
	Total int

	// Percentage is the overall completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of bytes programmed so far
	BytesWritten int

	// ElapsedTime is the time elapsed since programming started
	ElapsedTime time.Duration
}

// ProgressCallback is called periodically during programming to report progress.
// Implementations should return quickly to avoid blocking the programming operation.
type ProgressCallback func(Progress)
