// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package boot

import (
	"errors"
	"strings"
	"testing"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/efi/fake"
	"github.com/starscouts/brisbane/pkg/log/testlog"
)

var testVersion = Version{Version: "1.0.0", Compiler: "go1.21.0", Timestamp: "2024-05-01T12:00:00Z"}

const (
	banner   = "Welcome to Brisbane Bootloader\r\nversion 1.0.0 (go1.21.0, 2024-05-01T12:00:00Z)\r\n\r\n"
	pathLine = `Detected filesystem at PciRoot(0x0)/Pci(0x1f,0x2)/Sata(0x0,0xffff,0x0)/HD(1,GPT,81635CCD-1B4F-4D3F-B7B7-F78A5B029F35,0x800,0x100000)/\EFI\BOOT\BOOTX64.EFI` + "\r\n"
	reading  = "Reading kernel...\r\n"
	loading  = "Loading kernel...\r\n"
	starting = "Starting kernel...\r\n"
)

var kernelImage = []byte("MZ\x90\x00 pretend this is a kernel")

func newFirmware() *fake.Firmware {
	fw := fake.New()
	fw.AddFile(KernelPath, kernelImage)
	return fw
}

//runs the loader to completion against fw
func boot(t *testing.T, fw *fake.Firmware) *Fault {
	t.Helper()
	tlog := testlog.NewTestLogNoBG(t)
	tlog.FatalIsNotErr = true
	defer tlog.Freeze()

	f := Run(fw, testVersion)
	if f == nil {
		t.Fatal("Run returned nil")
	}
	Halt(fw, f)
	if !fw.Halted {
		t.Error("not halted")
	}
	if n := fw.OpenProtocols(); n != 0 {
		t.Errorf("%d protocols left open", n)
	}
	return f
}

func TestBootFaults(t *testing.T) {
	for _, td := range []struct {
		name    string
		setup   func(fw *fake.Firmware)
		kind    FaultKind
		status  efi.Status
		console string
	}{
		{
			name:    "kernel returns",
			kind:    UnexpectedReturn,
			console: banner + pathLine + reading + loading + starting + "\r\nOperation completed successfully.\r\n",
		},
		{
			name:    "kernel reports error",
			setup:   func(fw *fake.Firmware) { fw.StartErr = efi.Unsupported },
			kind:    KernelReported,
			status:  efi.Unsupported,
			console: banner + pathLine + reading + loading + starting + "\r\nSystem error encountered in kernel (look above).\r\n",
		},
		{
			name:    "start fails",
			setup:   func(fw *fake.Firmware) { fw.StartErr = efi.SecurityViolation },
			kind:    KernelStart,
			status:  efi.SecurityViolation,
			console: banner + pathLine + reading + loading + starting + "\r\nInternal system error while starting kernel: EFI_SECURITY_VIOLATION\r\n",
		},
		{
			name:    "load fails",
			setup:   func(fw *fake.Firmware) { fw.LoadErr = efi.LoadError },
			kind:    KernelLoad,
			status:  efi.LoadError,
			console: banner + pathLine + reading + loading + "\r\nInternal system error while loading kernel: EFI_LOAD_ERROR\r\n",
		},
		{
			name:    "kernel missing",
			setup:   func(fw *fake.Firmware) { fw.RemoveFile(KernelPath) },
			kind:    KernelNotFound,
			status:  efi.NotFound,
			console: banner + pathLine + reading + "\r\nKernel not found.\r\n",
		},
		{
			name:    "out of memory",
			setup:   func(fw *fake.Firmware) { fw.ReadErrs = map[string]error{KernelPath: efi.OutOfResources} },
			kind:    KernelOutOfMemory,
			status:  efi.OutOfResources,
			console: banner + pathLine + reading + "\r\nNot enough system memory to load the kernel.\r\n",
		},
		{
			name:    "read device error",
			setup:   func(fw *fake.Firmware) { fw.ReadErrs = map[string]error{KernelPath: efi.DeviceError} },
			kind:    KernelRead,
			status:  efi.DeviceError,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: EFI_DEVICE_ERROR\r\n",
		},
		{
			name:    "read error without status",
			setup:   func(fw *fake.Firmware) { fw.ReadErrs = map[string]error{KernelPath: errors.New("short read")} },
			kind:    KernelRead,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: short read\r\n",
		},
		{
			name:    "empty kernel",
			setup:   func(fw *fake.Firmware) { fw.AddFile(KernelPath, []byte{}) },
			kind:    KernelRead,
			status:  efi.LoadError,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: EFI_LOAD_ERROR\r\n",
		},
		{
			name:    "no file system",
			setup:   func(fw *fake.Firmware) { fw.VolumeErr = efi.Unsupported },
			kind:    KernelRead,
			status:  efi.Unsupported,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: EFI_UNSUPPORTED\r\n",
		},
		{
			name:    "boot medium missing",
			setup:   func(fw *fake.Firmware) { fw.VolumeErr = efi.NotFound },
			kind:    KernelRead,
			status:  efi.NotFound,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: EFI_NOT_FOUND\r\n",
		},
		{
			name:    "no memory to open file system",
			setup:   func(fw *fake.Firmware) { fw.VolumeErr = efi.OutOfResources },
			kind:    KernelRead,
			status:  efi.OutOfResources,
			console: banner + pathLine + reading + "\r\nInternal system error while reading kernel: EFI_OUT_OF_RESOURCES\r\n",
		},
		{
			name:    "device path refused",
			setup:   func(fw *fake.Firmware) { fw.OpenErr = efi.AccessDenied },
			kind:    DevicePath,
			status:  efi.AccessDenied,
			console: banner + "\r\nFailed to determine boot device: EFI_ACCESS_DENIED\r\n",
		},
		{
			name:    "device path to text fails",
			setup:   func(fw *fake.Firmware) { fw.TextErr = efi.OutOfResources },
			kind:    DevicePath,
			status:  efi.OutOfResources,
			console: banner + "\r\nFailed to determine boot device: EFI_OUT_OF_RESOURCES\r\n",
		},
		{
			name:    "console reset fails",
			setup:   func(fw *fake.Firmware) { fw.ResetErr = efi.DeviceError },
			kind:    EnvironmentInit,
			status:  efi.DeviceError,
			console: "\r\nFailed to clear screen buffer: EFI_DEVICE_ERROR\r\n",
		},
		{
			name:    "no boot services",
			setup:   func(fw *fake.Firmware) { fw.NoBootServices = true },
			kind:    EnvironmentInit,
			console: "\r\nFailed to initialize boot environment: firmware supplied no boot services\r\n",
		},
	} {
		t.Run(td.name, func(t *testing.T) {
			fw := newFirmware()
			if td.setup != nil {
				td.setup(fw)
			}
			f := boot(t, fw)
			if f.Kind != td.kind {
				t.Errorf("kind: got %s, want %s (%v)", f.Kind, td.kind, f)
			}
			if f.Status != td.status {
				t.Errorf("status: got %s, want %s", f.Status, td.status)
			}
			if got := fw.Output(); got != td.console {
				t.Errorf("console\ngot  %q\nwant %q", got, td.console)
			}
			if strings.Count(fw.Output(), "\n") != strings.Count(fw.Output(), "\r\n") {
				t.Error("bare LF on console")
			}
			if fw.HaltMsg != "" {
				t.Errorf("halt message %q with a console present", fw.HaltMsg)
			}
		})
	}
}

func TestBootHandsOverKernel(t *testing.T) {
	fw := newFirmware()
	boot(t, fw)

	if len(fw.Loads) != 1 {
		t.Fatalf("%d LoadImage calls", len(fw.Loads))
	}
	ld := fw.Loads[0]
	if len(ld.Buf) == 0 {
		t.Fatal("empty buffer loaded")
	}
	if &ld.Buf[0] != &kernelImage[0] {
		t.Error("kernel buffer was copied")
	}
	if ld.BootPolicy {
		t.Error("BootPolicy set")
	}
	if ld.Parent != fw.ImageHandle() {
		t.Errorf("parent 0x%x", ld.Parent)
	}
	if len(fw.Volumes) != 1 || !fw.Volumes[0].Equal(ld.DevicePath) {
		t.Errorf("volume opened on %v, image tagged with %s", fw.Volumes, ld.DevicePath)
	}
	if !ld.DevicePath.Equal(fw.DevicePath) {
		t.Errorf("loaded with %s, booted from %s", ld.DevicePath, fw.DevicePath)
	}
	//nothing but the halt after control came back
	n := len(fw.Calls)
	if n < 2 || fw.Calls[n-2] != "StartImage" || fw.Calls[n-1] != "Halt" {
		t.Errorf("calls: %v", fw.Calls)
	}
}

func TestScopedProtocols(t *testing.T) {
	fw := newFirmware()
	boot(t, fw)
	want := []string{
		"Reset",
		"OpenLoadedImageDevicePath", "DevicePathToText", "CloseDevicePath",
		"OpenVolume", "ReadFile", "CloseVolume",
		"LoadImage", "StartImage", "Halt",
	}
	if strings.Join(fw.Calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls\ngot  %v\nwant %v", fw.Calls, want)
	}
}

func TestReadFailureClosesVolume(t *testing.T) {
	fw := newFirmware()
	fw.ReadErrs = map[string]error{KernelPath: efi.DeviceError}
	boot(t, fw)
	if !fw.Called("CloseVolume") {
		t.Error("volume not closed")
	}
	if fw.Called("LoadImage") {
		t.Error("LoadImage called after read failure")
	}
}

func TestNoConsole(t *testing.T) {
	fw := newFirmware()
	fw.NoConsole = true
	f := boot(t, fw)
	if f.Kind != EnvironmentInit {
		t.Errorf("got %s", f.Kind)
	}
	if want := "Failed to initialize boot environment: firmware supplied no console"; fw.HaltMsg != want {
		t.Errorf("halt message %q", fw.HaltMsg)
	}
	if fw.Called("OpenLoadedImageDevicePath") {
		t.Error("continued without a console")
	}
}

func TestHaltLogsFatal(t *testing.T) {
	fw := newFirmware()
	fw.RemoveFile(KernelPath)
	tlog := testlog.NewTestLogNoBG(t)
	tlog.FatalIsNotErr = true
	Halt(fw, Run(fw, testVersion))
	tlog.MustContain(">>FATAL()<< Kernel not found.")
	if tlog.FatalCount != 1 {
		t.Errorf("%d fatal entries", tlog.FatalCount)
	}
}

func TestUnexpectedReturnNotFatal(t *testing.T) {
	fw := newFirmware()
	tlog := testlog.NewTestLogNoBG(t)
	Halt(fw, Run(fw, testVersion))
	tlog.MustContain("MSG:kernel returned control to the loader")
	if tlog.FatalCount != 0 {
		t.Errorf("%d fatal entries", tlog.FatalCount)
	}
}

func TestHaltNil(t *testing.T) {
	tlog := testlog.NewTestLogNoBG(t)
	defer tlog.Freeze()
	fw := newFirmware()
	Halt(fw, nil)
	if !strings.HasSuffix(fw.Output(), "\r\nOperation completed successfully.\r\n") {
		t.Errorf("got %q", fw.Output())
	}
}
