//go:build linux || darwin

package handler

import (
	"syscall"
	"time"
)

// stagingDisk reports usage of the filesystem holding path.
func stagingDisk(path string) diskUsage {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(path, &fs); err != nil {
		return diskUsage{}
	}
	total := int64(fs.Blocks) * int64(fs.Bsize)
	free := int64(fs.Bavail) * int64(fs.Bsize)
	return newDiskUsage(total, free)
}

// processCPUTime returns user plus system time consumed by the process.
func processCPUTime() (time.Duration, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	return time.Duration(ru.Utime.Nano()) + time.Duration(ru.Stime.Nano()), true
}
