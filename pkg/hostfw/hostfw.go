// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package hostfw provides the firmware services to a loader running as a
// linux program, in the LinuxBoot manner: the running kernel stands in for
// the firmware. The boot entry comes from efivars, the boot medium is found
// with blkid and mounted read-only, and the kernel is started with kexec.
package hostfw

import (
	"fmt"
	"io"
	"os"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/hw/block"
	"github.com/starscouts/brisbane/pkg/hw/kmsg"
	"github.com/starscouts/brisbane/pkg/hw/power"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"
)

type Options struct {
	// terminal the console writes to
	Console io.Writer
	// efivars directory; see uefi.EfiVarDir
	EfiVarDir string
	// sysfs block class directory; see block.SysClassBlock
	SysClassBlock string
	// where the boot medium is mounted
	MountBase string
	// boot log directory. Empty disables the log file.
	LogDir string
	// copy the log into the kernel ring buffer
	Kmsg bool
	// if set, used as the root of the boot medium instead of mounting it
	MediumRoot string
	// parks the machine. Must not return in production.
	Park func()
	// if false, StartImage only loads the kernel and does not reboot into it
	Reboot bool
}

func DefaultOptions() Options {
	return Options{
		Console:       os.Stdout,
		EfiVarDir:     "/sys/firmware/efi/efivars",
		SysClassBlock: "/sys/class/block",
		MountBase:     "/run/brisbane/medium",
		LogDir:        "/run/brisbane/log",
		Kmsg:          true,
		Park:          power.Park,
		Reboot:        true,
	}
}

// Firmware implements efi.SystemTable and efi.BootServices.
type Firmware struct {
	opts    Options
	console *console
	dpOpen  bool
	images  map[efi.Handle]*image
	next    efi.Handle
}

var (
	_ efi.SystemTable  = (*Firmware)(nil)
	_ efi.BootServices = (*Firmware)(nil)
)

const (
	imageHandle efi.Handle = 1
	firstLoaded efi.Handle = 0x10
)

func New(opts Options) *Firmware {
	if opts.Park == nil {
		opts.Park = power.Park
	}
	if opts.EfiVarDir != "" {
		uefi.EfiVarDir = opts.EfiVarDir
	}
	if opts.SysClassBlock != "" {
		block.SysClassBlock = opts.SysClassBlock
	}
	if opts.LogDir != "" {
		log.SetPrefix("brisbane_")
		if name, err := log.AddFileLog(opts.LogDir); err != nil {
			log.Logf("boot log unavailable: %s", err)
		} else {
			log.Logf("boot log %s", name)
		}
	}
	if opts.Kmsg {
		if err := kmsg.AddLog(kmsg.FacUser, "brisbane"); err != nil {
			log.Logf("kmsg unavailable: %s", err)
		}
	}
	fw := &Firmware{
		opts:   opts,
		images: make(map[efi.Handle]*image),
		next:   firstLoaded,
	}
	if opts.Console != nil {
		fw.console = &console{w: opts.Console}
	}
	return fw
}

func (fw *Firmware) ConOut() efi.Console {
	if fw.console == nil {
		return nil
	}
	return fw.console
}

func (fw *Firmware) BootServices() efi.BootServices { return fw }

// Halt flushes the log and parks.
func (fw *Firmware) Halt(msg string) {
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	log.Logf("halted")
	log.Finalize()
	for _, img := range fw.images {
		img.release()
	}
	fw.opts.Park()
}

func (fw *Firmware) ImageHandle() efi.Handle { return imageHandle }

//clears the screen and homes the cursor
const ansiClear = "\x1b[H\x1b[2J"

type console struct{ w io.Writer }

func (c *console) Reset(bool) error {
	if _, err := io.WriteString(c.w, ansiClear); err != nil {
		return fmt.Errorf("%v: %w", err, efi.DeviceError)
	}
	return nil
}

func (c *console) OutputString(s string) error {
	if _, err := io.WriteString(c.w, s); err != nil {
		return fmt.Errorf("%v: %w", err, efi.DeviceError)
	}
	if f, ok := c.w.(*os.File); ok {
		//ignore error; stdout may be a pipe or tty that cannot sync
		_ = f.Sync()
	}
	return nil
}
