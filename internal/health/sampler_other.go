//go:build !linux

package health

// PlatformSample picks the best SampleFunc for the runtime GOOS: outside
// Linux there is no /proc to read, so DefaultSample's honest partial
// measurement is used instead.
func PlatformSample() SampleFunc { return DefaultSample }
