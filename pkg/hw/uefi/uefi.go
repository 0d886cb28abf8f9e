// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package uefi decodes UEFI device paths and variables, and maps device paths
//onto linux block devices and files.
package uefi

import (
	"os"
	fp "path/filepath"
	"strings"
)

// SysFirmwareEfi exists only when linux was booted via UEFI.
var SysFirmwareEfi = "/sys/firmware/efi"

//return true if the system booted via UEFI (as opposed to legacy)
func BootedUEFI() bool {
	_, err := os.Stat(SysFirmwareEfi)
	return (err == nil)
}

// LocateFile finds an EFI-style path (backslash separated) below root,
// matching each component case-insensitively the way FAT does. Returns a
// *os.PathError wrapping os.ErrNotExist if any component is missing.
func LocateFile(root, efiPath string) (string, error) {
	current := root
	for _, want := range strings.FieldsFunc(efiPath, func(r rune) bool { return r == '\\' || r == '/' }) {
		entries, err := os.ReadDir(current)
		if err != nil {
			return "", err
		}
		found := ""
		for _, e := range entries {
			if e.Name() == want {
				found = e.Name()
				break
			}
			if found == "" && strings.EqualFold(e.Name(), want) {
				found = e.Name()
			}
		}
		if found == "" {
			return "", &os.PathError{Op: "locate", Path: fp.Join(current, want), Err: os.ErrNotExist}
		}
		current = fp.Join(current, found)
	}
	return current, nil
}
