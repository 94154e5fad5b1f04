package health

import "runtime"

// DefaultSample is the fallback SampleFunc on platforms without /proc: it
// reports memory pressure from the Go runtime's own heap stats and leaves
// CPU/disk at 0, which is honest (they are simply unmeasured here) rather
// than fabricated. internal/app wires the /proc-based sampler from
// sample_linux.go when GOOS is linux.
func DefaultSample() (cpuPercent, memPercent, diskPercent float64, err error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.Sys == 0 {
		return 0, 0, 0, nil
	}
	memPercent = float64(ms.HeapAlloc) / float64(ms.Sys) * 100
	return 0, memPercent, 0, nil
}
