//go:build linux

package health

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LinuxSample reads /proc/stat, /proc/meminfo, and statfs("/") to compute
// instantaneous CPU%, memory%, and disk% without any third-party dependency
// (the retrieval pack carries no OS-metrics library; see DESIGN.md). CPU% is
// measured as a two-sample delta taken 50ms apart (the call blocks for that
// interval) rather than reading a
// single /proc/stat line (cumulative counters, not a point-in-time load).
func LinuxSample() (cpuPercent, memPercent, diskPercent float64, err error) {
	cpuPercent, err = cpuPercentFromProcStat()
	if err != nil {
		return 0, 0, 0, err
	}
	memPercent, err = memPercentFromProcMeminfo()
	if err != nil {
		return 0, 0, 0, err
	}
	diskPercent, err = diskPercentFromStatfs("/")
	if err != nil {
		return 0, 0, 0, err
	}
	return cpuPercent, memPercent, diskPercent, nil
}

func cpuPercentFromProcStat() (float64, error) {
	first, err := readProcStatTotals()
	if err != nil {
		return 0, err
	}
	time.Sleep(50 * time.Millisecond)
	second, err := readProcStatTotals()
	if err != nil {
		return 0, err
	}

	idleDelta := second.idle - first.idle
	totalDelta := second.total - first.total
	if totalDelta <= 0 {
		return 0, nil
	}
	return (1 - float64(idleDelta)/float64(totalDelta)) * 100, nil
}

type procStatTotals struct {
	idle  uint64
	total uint64
}

func readProcStatTotals() (procStatTotals, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return procStatTotals{}, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}
		var total uint64
		var idle uint64
		for i, field := range fields[1:] {
			v, convErr := strconv.ParseUint(field, 10, 64)
			if convErr != nil {
				continue
			}
			total += v
			if i == 3 { // idle column
				idle = v
			}
		}
		return procStatTotals{idle: idle, total: total}, nil
	}
	return procStatTotals{}, fmt.Errorf("no cpu line in /proc/stat")
}

func memPercentFromProcMeminfo() (float64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var totalKB, availKB uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			availKB, _ = strconv.ParseUint(fields[1], 10, 64)
		}
	}
	if totalKB == 0 {
		return 0, fmt.Errorf("MemTotal missing from /proc/meminfo")
	}
	usedKB := totalKB - availKB
	return float64(usedKB) / float64(totalKB) * 100, nil
}

func diskPercentFromStatfs(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bfree * uint64(stat.Bsize)
	if total == 0 {
		return 0, nil
	}
	used := total - free
	return float64(used) / float64(total) * 100, nil
}
