//go:build unix

package sysinfo

import "syscall"

// diskUsage returns total and free bytes of the filesystem holding path.
// Errors are reported as zeros; this is telemetry, not control flow.
func diskUsage(path string) (total, free uint64) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0
	}
	return st.Blocks * uint64(st.Bsize), st.Bavail * uint64(st.Bsize)
}
