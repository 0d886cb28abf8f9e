// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostfw

import (
	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"
)

type devicePathProto struct {
	fw *Firmware
	dp uefi.DevicePath
}

func (p *devicePathProto) DevicePath() uefi.DevicePath { return p.dp }

func (p *devicePathProto) Close() error {
	p.fw.dpOpen = false
	return nil
}

// OpenLoadedImageDevicePath reports the first path of the boot entry the
// firmware used, per BootCurrent.
func (fw *Firmware) OpenLoadedImageDevicePath(image efi.Handle) (efi.DevicePathProtocol, error) {
	if image != imageHandle {
		return nil, efi.InvalidParameter
	}
	if fw.dpOpen {
		return nil, efi.AccessDenied
	}
	if !uefi.BootedUEFI() {
		log.Logf("%s missing, not booted via UEFI", uefi.SysFirmwareEfi)
		return nil, efi.Unsupported
	}
	bv, err := uefi.ReadCurrentBootVar()
	if err != nil {
		log.Logf("reading current boot entry: %s", err)
		return nil, statusErr(err)
	}
	log.Logf("%s", bv)
	fw.dpOpen = true
	return &devicePathProto{fw: fw, dp: bv.FilePathList[0]}, nil
}

func (fw *Firmware) DevicePathToText(dp uefi.DevicePath, displayOnly, allowShortcuts bool) (string, error) {
	if len(dp) == 0 {
		return "", efi.InvalidParameter
	}
	return dp.Text(uefi.TextOpts{DisplayOnly: displayOnly, AllowShortcuts: allowShortcuts}), nil
}
