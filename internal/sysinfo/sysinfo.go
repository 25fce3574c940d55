// Package sysinfo reports a best-effort snapshot of host and process
// state for the /api/system endpoint.
package sysinfo

import (
	"runtime"
	"time"
)

// Snapshot is a point-in-time view of the process and host.
type Snapshot struct {
	GoVersion     string `json:"go_version"`
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	NumCPU        int    `json:"num_cpu"`
	NumGoroutine  int    `json:"num_goroutine"`
	HeapAllocated uint64 `json:"heap_allocated"`
	HeapSystem    uint64 `json:"heap_system"`
	UptimeSeconds int64  `json:"uptime_seconds"`

	// Disk usage of the filesystem holding the managed root.
	// Zero on platforms where statfs is unavailable.
	DiskTotalBytes uint64 `json:"disk_total_bytes"`
	DiskFreeBytes  uint64 `json:"disk_free_bytes"`
}

// Collect gathers a snapshot. startedAt is the process start time;
// dataDir locates the filesystem to report disk usage for.
func Collect(startedAt time.Time, dataDir string) *Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	snap := &Snapshot{
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
		HeapAllocated: mem.HeapAlloc,
		HeapSystem:    mem.HeapSys,
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	}

	total, free := diskUsage(dataDir)
	snap.DiskTotalBytes = total
	snap.DiskFreeBytes = free
	return snap
}
