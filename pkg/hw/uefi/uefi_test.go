// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"errors"
	"os"
	fp "path/filepath"
	"testing"
)

func TestLocateFile(t *testing.T) {
	root := t.TempDir()
	dir := fp.Join(root, "Brisbane", "BOOT")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fp.Join(dir, "kernel"), []byte("MZ"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := LocateFile(root, `\brisbane\boot\kernel`)
	if err != nil {
		t.Fatal(err)
	}
	if want := fp.Join(dir, "kernel"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if _, err := LocateFile(root, `\brisbane\boot\initrd`); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("want not-exist, got %v", err)
	}
}

func TestPathResolver(t *testing.T) {
	dp := DevicePath{NewDppMediaFilePath(`\EFI\BOOT\BOOTX64.EFI`)}
	rs, err := dp.Resolvers()
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 1 {
		t.Fatalf("got %d resolvers", len(rs))
	}
	defer rs[0].Cleanup()
	got, err := rs[0].Resolve("/mnt")
	if err != nil || got != "/mnt/EFI/BOOT/BOOTX64.EFI" {
		t.Errorf("got %s %v", got, err)
	}
	if rs[0].BlockInfo() != nil {
		t.Error("path resolver has block info")
	}
}

func TestResolversNone(t *testing.T) {
	dp := DevicePath{NewDppPciRoot(0), NewDppHwPci(0x1f, 2)}
	if _, err := dp.Resolvers(); err != ENotFound {
		t.Errorf("got %v", err)
	}
}

func TestBootedUEFI(t *testing.T) {
	old := SysFirmwareEfi
	defer func() { SysFirmwareEfi = old }()
	SysFirmwareEfi = t.TempDir()
	if !BootedUEFI() {
		t.Error("want true")
	}
	SysFirmwareEfi = fp.Join(SysFirmwareEfi, "missing")
	if BootedUEFI() {
		t.Error("want false")
	}
}
