// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package boot finds the kernel on the medium the loader was started from,
// hands it to the firmware, and starts it. Any failure is terminal: Run
// returns a Fault and Halt reports it and parks the machine.
package boot

import (
	"errors"
	"fmt"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"

	"github.com/dustin/go-humanize"
)

// KernelPath is relative to the root of the boot medium.
const KernelPath = `\brisbane\boot\kernel`

// devicePathText is how the boot device is shown to the operator.
var devicePathText = uefi.FullText

// Version is shown in the banner.
type Version struct {
	Version   string
	Compiler  string
	Timestamp string
}

func (v Version) String() string {
	return fmt.Sprintf("version %s (%s, %s)", v.Version, v.Compiler, v.Timestamp)
}

//console output; write errors are logged and otherwise ignored
func say(st efi.SystemTable, line string) {
	con := st.ConOut()
	if con == nil {
		return
	}
	if err := efi.Println(con, line); err != nil {
		log.Logf("console write %q: %s", line, err)
	}
}

// Bootstrap checks the system table, clears the screen and prints the banner.
func Bootstrap(st efi.SystemTable, v Version) *Fault {
	con := st.ConOut()
	if con == nil {
		return newFault(EnvironmentInit, errNoConsole)
	}
	if st.BootServices() == nil {
		return newFault(EnvironmentInit, errNoServices)
	}
	if err := con.Reset(false); err != nil {
		return newFault(EnvironmentInit, fmt.Errorf("%w: %w", errConsoleReset, err))
	}
	say(st, "Welcome to Brisbane Bootloader")
	say(st, v.String())
	say(st, "")
	log.Logf("brisbane loader %s", v)
	return nil
}

// ResolveBootDevice returns the device path the running image was loaded
// from, and its text form. The protocol is closed before returning.
func ResolveBootDevice(st efi.SystemTable) (uefi.DevicePath, string, *Fault) {
	bs := st.BootServices()
	var (
		dp   uefi.DevicePath
		text string
	)
	err := efi.WithLoadedImageDevicePath(bs, bs.ImageHandle(), func(p uefi.DevicePath) (err error) {
		dp = p
		text, err = bs.DevicePathToText(p, devicePathText.DisplayOnly, devicePathText.AllowShortcuts)
		return
	})
	if err != nil {
		return nil, "", newFault(DevicePath, err)
	}
	if len(dp) == 0 {
		return nil, "", newFault(DevicePath, uefi.ENotFound)
	}
	log.Logf("boot device %s", text)
	return dp, text, nil
}

// ReadKernel reads KernelPath from the file system on dp's device.
func ReadKernel(st efi.SystemTable, dp uefi.DevicePath) ([]byte, *Fault) {
	var (
		kernel  []byte
		readErr error
	)
	err := efi.WithVolume(st.BootServices(), dp, func(vol efi.Volume) error {
		kernel, readErr = vol.ReadFile(KernelPath)
		return readErr
	})
	if err != nil {
		log.Logf("reading %s: %s", KernelPath, err)
		//only the read itself says anything about the kernel file
		switch {
		case readErr == nil:
		case errors.Is(readErr, efi.NotFound):
			return nil, newFault(KernelNotFound, readErr)
		case errors.Is(readErr, efi.OutOfResources):
			return nil, newFault(KernelOutOfMemory, readErr)
		}
		return nil, newFault(KernelRead, err)
	}
	if len(kernel) == 0 {
		return nil, &Fault{Kind: KernelRead, Status: efi.LoadError, Err: errEmptyKernel}
	}
	log.Logf("read %s: %s", KernelPath, humanize.IBytes(uint64(len(kernel))))
	return kernel, nil
}

// LoadKernel registers kernel with the firmware. kernel must stay untouched
// until the image has been started.
func LoadKernel(st efi.SystemTable, dp uefi.DevicePath, kernel []byte) (efi.Handle, *Fault) {
	bs := st.BootServices()
	h, err := bs.LoadImage(false, bs.ImageHandle(), dp, kernel)
	if err != nil {
		log.Logf("LoadImage: %s", err)
		return 0, newFault(KernelLoad, err)
	}
	log.Logf("kernel loaded, handle 0x%x", uint64(h))
	return h, nil
}

// StartKernel transfers control to the kernel. It always returns a Fault,
// since a kernel that takes over the machine never comes back.
func StartKernel(st efi.SystemTable, h efi.Handle) *Fault {
	err := st.BootServices().StartImage(h)
	if err == nil {
		return &Fault{Kind: UnexpectedReturn}
	}
	log.Logf("StartImage: %s", err)
	if errors.Is(err, efi.Unsupported) {
		return newFault(KernelReported, err)
	}
	return newFault(KernelStart, err)
}

// Run performs one boot attempt. It returns only if the attempt failed.
func Run(st efi.SystemTable, v Version) *Fault {
	if f := Bootstrap(st, v); f != nil {
		return f
	}
	dp, text, f := ResolveBootDevice(st)
	if f != nil {
		return f
	}
	say(st, "Detected filesystem at "+text)

	say(st, "Reading kernel...")
	kernel, f := ReadKernel(st, dp)
	if f != nil {
		return f
	}

	say(st, "Loading kernel...")
	h, f := LoadKernel(st, dp, kernel)
	if f != nil {
		return f
	}

	say(st, "Starting kernel...")
	return StartKernel(st, h)
}

// Halt reports f, once, and parks the machine.
func Halt(st efi.SystemTable, f *Fault) {
	if f == nil {
		f = &Fault{Kind: UnexpectedReturn}
	}
	msg := f.Message()
	if f.Kind == UnexpectedReturn {
		log.Msgf("kernel returned control to the loader")
	} else {
		log.FlaggedLogf(flags.Fatal|flags.NotConsole, "%s (%v)", msg, f)
	}
	if st.ConOut() == nil {
		st.Halt(msg)
		return
	}
	say(st, "")
	say(st, msg)
	st.Halt("")
}

// Main is the whole loader.
func Main(st efi.SystemTable, v Version) {
	Halt(st, Run(st, v))
}
