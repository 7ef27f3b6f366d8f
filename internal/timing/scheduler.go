package timing

import "time"

const (
	// spinWindow is the final slice before a deadline that is spun through
	// instead of slept; plain timers carry 10-20ms of scheduler jitter, and
	// independent clients must start audio within a few milliseconds of each
	// other to sound synchronized.
	spinWindow = time.Millisecond * 25

	spinSleep = time.Millisecond
)

// Schedule invokes callback once delay has elapsed. Non-positive delays
// invoke it immediately on the calling goroutine; delays shorter than the
// spin window use a plain timer; longer delays sleep for most of the time and
// spin on the monotonic clock through the last spinWindow.
//
// There is no cancellation. Callers that may supersede a scheduled callback
// hold a generation token and turn stale fires into no-ops.
func Schedule(delay time.Duration, callback func()) {
	if delay <= 0 {
		callback()

		return
	}

	if delay < spinWindow {
		time.AfterFunc(delay, callback)

		return
	}

	target := time.Now().Add(delay)

	go func() {
		time.Sleep(delay - spinWindow)

		for time.Now().Before(target) {
			time.Sleep(spinSleep)
		}

		callback()
	}()
}
