// SPDX-License-Identifier: MPL-2.0

//go:build linux || darwin || freebsd

package fileops

import "golang.org/x/sys/unix"

// diskFreeSpace returns the total free bytes on the volume holding path.
func diskFreeSpace(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bfree) * uint64(st.Bsize), nil //nolint:gosec // block size is never negative
}
