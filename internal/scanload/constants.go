package scanload

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	DefaultRepeats       = 3
	DefaultTimeout       = 10 * time.Second
	PercentageMultiplier = 100
	directoryPermission  = 0o750
)
