//go:build windows

package handler

import "time"

func stagingDisk(string) diskUsage { return diskUsage{} }

func processCPUTime() (time.Duration, bool) { return 0, false }
