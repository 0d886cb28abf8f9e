// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package fake is a simulated firmware for tests. Every service can be made
// to fail, and every call is recorded.
package fake

import (
	"strings"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/guid"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
)

const (
	ImageHandle efi.Handle = 0x100
	firstLoaded efi.Handle = 0x1000
)

// Load records one LoadImage call.
type Load struct {
	BootPolicy bool
	Parent     efi.Handle
	DevicePath uefi.DevicePath
	Buf        []byte
}

// Firmware implements efi.SystemTable, efi.Console and efi.BootServices.
// Set the exported fields before use; the zero value of an error field means
// the service succeeds.
type Firmware struct {
	// the loaded image device path of the running image
	DevicePath uefi.DevicePath

	NoConsole, NoBootServices bool

	ResetErr  error
	OutputErr error
	OpenErr   error //OpenLoadedImageDevicePath
	CloseErr  error //closing either protocol
	TextErr   error
	VolumeErr error
	ReadErrs  map[string]error //by path, case insensitive
	LoadErr   error
	StartErr  error //nil means StartImage returns success

	// Calls lists the services used, in order.
	Calls []string
	Loads []Load
	// device paths OpenVolume was called with
	Volumes []uefi.DevicePath

	Halted  bool
	HaltMsg string

	files map[string][]byte
	out   strings.Builder
	open  int
	next  efi.Handle
}

var (
	_ efi.SystemTable  = (*Firmware)(nil)
	_ efi.Console      = (*Firmware)(nil)
	_ efi.BootServices = (*Firmware)(nil)
)

// New returns firmware that booted from the first partition of a SATA disk.
func New() *Firmware {
	sig := guid.MustParse("81635ccd-1b4f-4d3f-b7b7-f78a5b029f35")
	return &Firmware{
		DevicePath: uefi.DevicePath{
			uefi.NewDppPciRoot(0),
			uefi.NewDppHwPci(0x1f, 2),
			uefi.NewDppMsgSATA(0, 0xffff, 0),
			uefi.NewDppMediaGptHdd(1, 0x800, 0x100000, sig),
			uefi.NewDppMediaFilePath(`\EFI\BOOT\BOOTX64.EFI`),
		},
		files: make(map[string][]byte),
		next:  firstLoaded,
	}
}

func normalize(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	return strings.ToLower(strings.TrimLeft(path, `\`))
}

// AddFile places a file on the boot volume. data is stored, not copied.
func (fw *Firmware) AddFile(path string, data []byte) { fw.files[normalize(path)] = data }

func (fw *Firmware) RemoveFile(path string) { delete(fw.files, normalize(path)) }

// Output is everything written to the console.
func (fw *Firmware) Output() string { return fw.out.String() }

// OpenProtocols is the number of protocols opened and not yet closed.
func (fw *Firmware) OpenProtocols() int { return fw.open }

// Called reports whether the named service was used.
func (fw *Firmware) Called(name string) bool {
	for _, c := range fw.Calls {
		if c == name {
			return true
		}
	}
	return false
}

func (fw *Firmware) record(name string) { fw.Calls = append(fw.Calls, name) }

func (fw *Firmware) ConOut() efi.Console {
	if fw.NoConsole {
		return nil
	}
	return fw
}

func (fw *Firmware) BootServices() efi.BootServices {
	if fw.NoBootServices {
		return nil
	}
	return fw
}

func (fw *Firmware) Halt(msg string) {
	fw.record("Halt")
	fw.Halted = true
	fw.HaltMsg = msg
}

func (fw *Firmware) Reset(bool) error {
	fw.record("Reset")
	if fw.ResetErr != nil {
		return fw.ResetErr
	}
	fw.out.Reset()
	return nil
}

func (fw *Firmware) OutputString(s string) error {
	if fw.OutputErr != nil {
		return fw.OutputErr
	}
	fw.out.WriteString(s)
	return nil
}

func (fw *Firmware) ImageHandle() efi.Handle { return ImageHandle }

type devicePathProto struct {
	fw *Firmware
	dp uefi.DevicePath
}

func (p *devicePathProto) DevicePath() uefi.DevicePath { return p.dp }

func (p *devicePathProto) Close() error {
	p.fw.record("CloseDevicePath")
	p.fw.open--
	return p.fw.CloseErr
}

func (fw *Firmware) OpenLoadedImageDevicePath(image efi.Handle) (efi.DevicePathProtocol, error) {
	fw.record("OpenLoadedImageDevicePath")
	if fw.OpenErr != nil {
		return nil, fw.OpenErr
	}
	if image != ImageHandle {
		return nil, efi.InvalidParameter
	}
	fw.open++
	return &devicePathProto{fw: fw, dp: fw.DevicePath}, nil
}

func (fw *Firmware) DevicePathToText(dp uefi.DevicePath, displayOnly, allowShortcuts bool) (string, error) {
	fw.record("DevicePathToText")
	if fw.TextErr != nil {
		return "", fw.TextErr
	}
	return dp.Text(uefi.TextOpts{DisplayOnly: displayOnly, AllowShortcuts: allowShortcuts}), nil
}

type volume struct{ fw *Firmware }

func (v *volume) ReadFile(path string) ([]byte, error) {
	v.fw.record("ReadFile")
	key := normalize(path)
	for p, err := range v.fw.ReadErrs {
		if normalize(p) == key && err != nil {
			return nil, err
		}
	}
	data, ok := v.fw.files[key]
	if !ok {
		return nil, efi.NotFound
	}
	return data, nil
}

func (v *volume) Close() error {
	v.fw.record("CloseVolume")
	v.fw.open--
	return v.fw.CloseErr
}

// OpenVolume succeeds only for the device the running image was loaded from.
func (fw *Firmware) OpenVolume(dp uefi.DevicePath) (efi.Volume, error) {
	fw.record("OpenVolume")
	fw.Volumes = append(fw.Volumes, dp)
	if fw.VolumeErr != nil {
		return nil, fw.VolumeErr
	}
	if !dp.DeviceOnly().Equal(fw.DevicePath.DeviceOnly()) {
		return nil, efi.NotFound
	}
	fw.open++
	return &volume{fw: fw}, nil
}

func (fw *Firmware) LoadImage(bootPolicy bool, parent efi.Handle, dp uefi.DevicePath, buf []byte) (efi.Handle, error) {
	fw.record("LoadImage")
	fw.Loads = append(fw.Loads, Load{BootPolicy: bootPolicy, Parent: parent, DevicePath: dp, Buf: buf})
	if fw.LoadErr != nil {
		return 0, fw.LoadErr
	}
	if len(buf) == 0 {
		return 0, efi.LoadError
	}
	h := fw.next
	fw.next++
	return h, nil
}

func (fw *Firmware) StartImage(image efi.Handle) error {
	fw.record("StartImage")
	if image < firstLoaded || image >= fw.next {
		return efi.InvalidParameter
	}
	return fw.StartErr
}
