// SPDX-License-Identifier: MPL-2.0

//go:build !linux && !darwin && !freebsd && !windows

package fileops

import "errors"

func diskFreeSpace(string) (uint64, error) {
	return 0, errors.ErrUnsupported
}
