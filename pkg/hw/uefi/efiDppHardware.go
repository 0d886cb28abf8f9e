// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"encoding/binary"
	"fmt"
)

type EfiDppHwSubType EfiDevPathProtoSubType

const (
	DppHTypePCI EfiDppHwSubType = iota + 1
	DppHTypePCCARD
	DppHTypeMMap
	DppHTypeVendor
	DppHTypeCtrl
	DppHTypeBMC
)

func (s EfiDppHwSubType) String() string {
	switch s {
	case DppHTypePCI:
		return "PCI"
	case DppHTypePCCARD:
		return "PCCARD"
	case DppHTypeMMap:
		return "MMap"
	case DppHTypeVendor:
		return "Vendor"
	case DppHTypeCtrl:
		return "Control"
	case DppHTypeBMC:
		return "BMC"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(s))
	}
}

//struct in EfiDevicePathProtocol for DppHTypePCI
type DppHwPci struct {
	dppBase
	Function, Device uint8
}

var _ DevicePathNode = (*DppHwPci)(nil)

func ParseDppHwPci(h DppHdr, b []byte) (*DppHwPci, error) {
	if len(b) != 2 {
		return nil, EParse
	}
	return &DppHwPci{
		dppBase:  dppBase{Hdr: h, data: b},
		Function: b[0],
		Device:   b[1],
	}, nil
}

func NewDppHwPci(device, function uint8) *DppHwPci {
	return &DppHwPci{
		dppBase:  newBase(DppTypeHw, EfiDevPathProtoSubType(DppHTypePCI), []byte{function, device}),
		Function: function,
		Device:   device,
	}
}

//device first in text form, though function is first in the struct
func (e *DppHwPci) Text(TextOpts) string {
	return fmt.Sprintf("Pci(0x%x,0x%x)", e.Device, e.Function)
}

//struct in EfiDevicePathProtocol for DppHTypeCtrl
type DppHwCtrl struct {
	dppBase
	Controller uint32
}

var _ DevicePathNode = (*DppHwCtrl)(nil)

func ParseDppHwCtrl(h DppHdr, b []byte) (*DppHwCtrl, error) {
	if len(b) != 4 {
		return nil, EParse
	}
	return &DppHwCtrl{
		dppBase:    dppBase{Hdr: h, data: b},
		Controller: binary.LittleEndian.Uint32(b),
	}, nil
}

func (e *DppHwCtrl) Text(TextOpts) string { return fmt.Sprintf("Ctrl(0x%x)", e.Controller) }
