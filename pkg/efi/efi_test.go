// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package efi_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/efi/fake"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log/testlog"
)

func TestStatus(t *testing.T) {
	for _, td := range []struct {
		s       efi.Status
		want    string
		isError bool
	}{
		{efi.Success, "EFI_SUCCESS", false},
		{efi.NotFound, "EFI_NOT_FOUND", true},
		{efi.OutOfResources, "EFI_OUT_OF_RESOURCES", true},
		{efi.Unsupported, "EFI_UNSUPPORTED", true},
		{efi.ErrorBit | 0x1234, "EFI_ERROR(0x1234)", true},
		{efi.WarnStaleData, "EFI_WARN_STALE_DATA", false},
		{efi.Status(0x99), "EFI_WARN(0x99)", false},
	} {
		if got := td.s.String(); got != td.want {
			t.Errorf("%#x: got %s, want %s", uint64(td.s), got, td.want)
		}
		if td.s.IsError() != td.isError {
			t.Errorf("%s: IsError %t", td.s, !td.isError)
		}
		if (td.s.Err() != nil) != td.isError {
			t.Errorf("%s: Err() %v", td.s, td.s.Err())
		}
	}
}

func TestStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("reading kernel: %w", efi.NotFound)
	if s, ok := efi.StatusOf(wrapped); !ok || s != efi.NotFound {
		t.Errorf("got %s %t", s, ok)
	}
	if !errors.Is(wrapped, efi.NotFound) {
		t.Error("errors.Is failed")
	}
	if _, ok := efi.StatusOf(errors.New("plain")); ok {
		t.Error("status found in plain error")
	}
}

func TestWithLoadedImageDevicePath(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	defer tlog.Freeze()

	fw := fake.New()
	bs := fw.BootServices()
	boom := errors.New("boom")
	var seen uefi.DevicePath
	err := efi.WithLoadedImageDevicePath(bs, bs.ImageHandle(), func(dp uefi.DevicePath) error {
		seen = dp
		if fw.OpenProtocols() != 1 {
			t.Errorf("protocol not open inside fn")
		}
		return boom
	})
	if err != boom {
		t.Errorf("got %v", err)
	}
	if !seen.Equal(fw.DevicePath) {
		t.Errorf("got path %s", seen)
	}
	if fw.OpenProtocols() != 0 {
		t.Errorf("%d protocols left open", fw.OpenProtocols())
	}

	fw.CloseErr = efi.DeviceError
	err = efi.WithLoadedImageDevicePath(bs, bs.ImageHandle(), func(uefi.DevicePath) error { return nil })
	if err != efi.DeviceError {
		t.Errorf("close error lost: %v", err)
	}
}

func TestWithVolume(t *testing.T) {
	fw := fake.New()
	fw.AddFile(`\a\b`, []byte("x"))
	bs := fw.BootServices()
	var got []byte
	err := efi.WithVolume(bs, fw.DevicePath, func(v efi.Volume) (err error) {
		got, err = v.ReadFile(`\A\B`)
		return
	})
	if err != nil || string(got) != "x" {
		t.Errorf("got %q %v", got, err)
	}
	if fw.OpenProtocols() != 0 {
		t.Errorf("%d protocols left open", fw.OpenProtocols())
	}

	fw.VolumeErr = efi.NoMedia
	called := false
	err = efi.WithVolume(bs, fw.DevicePath, func(efi.Volume) error { called = true; return nil })
	if err != efi.NoMedia || called {
		t.Errorf("got %v, called=%t", err, called)
	}
}

func TestPrintln(t *testing.T) {
	fw := fake.New()
	con := fw.ConOut()
	if err := efi.Println(con, "a\nb\r\nc"); err != nil {
		t.Fatal(err)
	}
	if err := efi.Println(con, ""); err != nil {
		t.Fatal(err)
	}
	if got, want := fw.Output(), "a\r\nb\r\nc\r\n\r\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Count(fw.Output(), "\n") != strings.Count(fw.Output(), "\r\n") {
		t.Error("bare LF in output")
	}
}
