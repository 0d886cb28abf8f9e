// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostfw

import (
	"bytes"
	"debug/pe"
	"fmt"
	"os"
	"runtime"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/hw/power"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"

	"golang.org/x/sys/unix"
)

// a loaded image, staged in memory for kexec
type image struct {
	f  *os.File
	dp uefi.DevicePath
}

func (img *image) release() {
	if img.f != nil {
		img.f.Close()
		img.f = nil
	}
}

var peMachine = map[string]uint16{
	"amd64":   pe.IMAGE_FILE_MACHINE_AMD64,
	"arm64":   pe.IMAGE_FILE_MACHINE_ARM64,
	"386":     pe.IMAGE_FILE_MACHINE_I386,
	"arm":     pe.IMAGE_FILE_MACHINE_ARMNT,
	"riscv64": pe.IMAGE_FILE_MACHINE_RISCV64,
}

// checkImage accepts PE/COFF images for this machine.
func checkImage(buf []byte) error {
	f, err := pe.NewFile(bytes.NewReader(buf))
	if err != nil {
		log.Logf("not a PE image: %s", err)
		return efi.LoadError
	}
	defer f.Close()
	if want, ok := peMachine[runtime.GOARCH]; ok && f.Machine != want {
		log.Logf("image machine 0x%x, want 0x%x", f.Machine, want)
		return efi.Unsupported
	}
	return nil
}

//copies buf into an anonymous memory-backed file
func stage(buf []byte) (*os.File, error) {
	fd, err := unix.MemfdCreate("brisbane-kernel", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, statusErr(err)
	}
	f := os.NewFile(uintptr(fd), "brisbane-kernel")
	if _, err = f.Write(buf); err != nil {
		f.Close()
		return nil, statusErr(err)
	}
	return f, nil
}

func (fw *Firmware) LoadImage(bootPolicy bool, parent efi.Handle, dp uefi.DevicePath, buf []byte) (efi.Handle, error) {
	if parent != imageHandle || len(buf) == 0 {
		return 0, efi.InvalidParameter
	}
	if bootPolicy {
		//only loading from memory is supported
		return 0, efi.Unsupported
	}
	if err := checkImage(buf); err != nil {
		return 0, err
	}
	f, err := stage(buf)
	if err != nil {
		return 0, err
	}
	h := fw.next
	fw.next++
	fw.images[h] = &image{f: f, dp: dp}
	log.Logf("staged image 0x%x from %s", uint64(h), dp)
	return h, nil
}

func kexecLoad(f *os.File) error { return power.Load(f, "") }

// replaced in tests
var (
	kexec       = kexecLoad
	kexecReboot = power.Kexec
)

// StartImage loads the image into the kernel with kexec and reboots into it.
func (fw *Firmware) StartImage(h efi.Handle) error {
	img, ok := fw.images[h]
	if !ok || img.f == nil {
		return efi.InvalidParameter
	}
	if err := kexec(img.f); err != nil {
		log.Logf("kexec_file_load: %s", err)
		//the kernel never ran, so this is never the kernel's own EFI_UNSUPPORTED
		return fmt.Errorf("kexec_file_load: %w: %w", err, efi.LoadError)
	}
	if !fw.opts.Reboot {
		return nil
	}
	log.Logf("rebooting into 0x%x", uint64(h))
	if err := kexecReboot(); err != nil {
		return statusErr(err)
	}
	//not reached if the reboot succeeded
	return nil
}
