//go:build linux

package serial

import (
	"log"
	"runtime"

	"golang.org/x/sys/unix"
)

// lowestNice is the weakest scheduling priority on Linux.
const lowestNice = 19

// lowerPriority pins the calling goroutine to its OS thread and drops that
// thread to the lowest scheduling priority. On Linux setpriority with a
// thread id affects only that thread.
func lowerPriority() {
	runtime.LockOSThread()
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), lowestNice); err != nil {
		log.Printf("serial bridge: cannot lower listener priority: %v", err)
	}
}
