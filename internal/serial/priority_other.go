//go:build !linux

package serial

// lowerPriority is a no-op where per-thread priorities are not available.
func lowerPriority() {}
