// SPDX-License-Identifier: MPL-2.0

//go:build windows

package fileops

import "golang.org/x/sys/windows"

// diskFreeSpace returns the total free bytes on the volume holding path.
func diskFreeSpace(path string) (uint64, error) {
	dir, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	var freeAvailable, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(dir, &freeAvailable, &total, &totalFree); err != nil {
		return 0, err
	}
	return totalFree, nil
}
