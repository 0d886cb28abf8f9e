// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package efi

import (
	"strings"

	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"
)

// WithLoadedImageDevicePath opens the loaded image device path protocol on
// image, calls fn, and closes the protocol whatever fn returns. A close
// failure is returned only when fn succeeded.
func WithLoadedImageDevicePath(bs BootServices, image Handle, fn func(uefi.DevicePath) error) (err error) {
	proto, err := bs.OpenLoadedImageDevicePath(image)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := proto.Close(); cerr != nil {
			log.Logf("closing loaded image device path: %s", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(proto.DevicePath())
}

// WithVolume opens the file system on dp, calls fn, and closes the volume
// whatever fn returns.
func WithVolume(bs BootServices, dp uefi.DevicePath, fn func(Volume) error) (err error) {
	vol, err := bs.OpenVolume(dp)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := vol.Close(); cerr != nil {
			log.Logf("closing volume: %s", cerr)
			if err == nil {
				err = cerr
			}
		}
	}()
	return fn(vol)
}

// Println writes s and a line terminator. Bare newlines in s become CRLF,
// which is what firmware consoles expect.
func Println(c Console, s string) error {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	return c.OutputString(s + "\r\n")
}
