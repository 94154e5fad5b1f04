//go:build linux

package health

// PlatformSample picks the best SampleFunc for the runtime GOOS: the
// /proc-based LinuxSample on Linux.
func PlatformSample() SampleFunc { return LinuxSample }
