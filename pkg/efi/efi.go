// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package efi describes the firmware services a loader consumes: a text
// console and the handful of boot services needed to find, load and start
// the next image. Implementations live elsewhere (pkg/hostfw, pkg/efi/fake).
package efi

import (
	"github.com/starscouts/brisbane/pkg/hw/uefi"
)

// Handle is an opaque firmware handle.
type Handle uint64

// Console is the simple text output protocol.
type Console interface {
	//clear the screen. extendedVerification asks the device for a more thorough reset.
	Reset(extendedVerification bool) error
	//the string is written as-is; line endings are the caller's business
	OutputString(s string) error
}

// DevicePathProtocol is an opened EFI_LOADED_IMAGE_DEVICE_PATH_PROTOCOL.
// It must be closed.
type DevicePathProtocol interface {
	DevicePath() uefi.DevicePath
	Close() error
}

// Volume is an opened simple file system. It must be closed.
type Volume interface {
	// ReadFile reads a whole file. path is backslash separated, relative
	// to the volume root.
	ReadFile(path string) ([]byte, error)
	Close() error
}

type BootServices interface {
	// ImageHandle is the handle of the running image.
	ImageHandle() Handle

	// OpenLoadedImageDevicePath opens the loaded image device path protocol
	// on image, with exclusive access.
	OpenLoadedImageDevicePath(image Handle) (DevicePathProtocol, error)

	DevicePathToText(dp uefi.DevicePath, displayOnly, allowShortcuts bool) (string, error)

	// OpenVolume locates the simple file system on the device dp names and
	// opens its root.
	OpenVolume(dp uefi.DevicePath) (Volume, error)

	// LoadImage registers an image held in memory. buf is borrowed until the
	// image is started.
	LoadImage(bootPolicy bool, parent Handle, dp uefi.DevicePath, buf []byte) (Handle, error)

	// StartImage does not return if the image takes over the machine.
	StartImage(image Handle) error
}

// SystemTable is what the firmware hands to a loader. ConOut and
// BootServices return nil if the firmware did not supply them.
type SystemTable interface {
	ConOut() Console
	BootServices() BootServices

	// Halt parks the machine and does not return in production. msg is
	// non-empty only when it could not be written to the console.
	Halt(msg string)
}
