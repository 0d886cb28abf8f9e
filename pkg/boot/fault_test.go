// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package boot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/starscouts/brisbane/pkg/efi"
)

func TestFaultMessage(t *testing.T) {
	for _, td := range []struct {
		f    *Fault
		want string
	}{
		{newFault(KernelNotFound, efi.NotFound), "Kernel not found."},
		{newFault(KernelOutOfMemory, efi.OutOfResources), "Not enough system memory to load the kernel."},
		{newFault(KernelRead, fmt.Errorf("read: %w", efi.VolumeCorrupted)), "Internal system error while reading kernel: EFI_VOLUME_CORRUPTED"},
		{newFault(KernelLoad, efi.SecurityViolation), "Internal system error while loading kernel: EFI_SECURITY_VIOLATION"},
		{newFault(KernelReported, efi.Unsupported), "System error encountered in kernel (look above)."},
		{newFault(KernelStart, efi.InvalidParameter), "Internal system error while starting kernel: EFI_INVALID_PARAMETER"},
		{&Fault{Kind: UnexpectedReturn}, "Operation completed successfully."},
		{newFault(DevicePath, efi.Unsupported), "Failed to determine boot device: EFI_UNSUPPORTED"},
		{newFault(EnvironmentInit, fmt.Errorf("%w: %w", errConsoleReset, efi.DeviceError)), "Failed to clear screen buffer: EFI_DEVICE_ERROR"},
		{newFault(EnvironmentInit, errNoServices), "Failed to initialize boot environment: firmware supplied no boot services"},
	} {
		if got := td.f.Message(); got != td.want {
			t.Errorf("%s: got %q, want %q", td.f.Kind, got, td.want)
		}
	}
}

func TestFaultUnwrap(t *testing.T) {
	f := newFault(KernelRead, fmt.Errorf("read: %w", efi.DeviceError))
	if f.Status != efi.DeviceError {
		t.Errorf("status %s", f.Status)
	}
	if !errors.Is(f, efi.DeviceError) {
		t.Error("status not in chain")
	}
	var err error = f
	var got *Fault
	if !errors.As(err, &got) || got.Kind != KernelRead {
		t.Error("errors.As failed")
	}
	if f.Error() != "KernelRead: read: EFI_DEVICE_ERROR" {
		t.Errorf("got %s", f.Error())
	}
}

func TestFaultKindString(t *testing.T) {
	if UnexpectedReturn.String() != "UnexpectedReturn" {
		t.Error(UnexpectedReturn.String())
	}
	if FaultKind(99).String() != "FaultKind(99)" {
		t.Error(FaultKind(99).String())
	}
}
