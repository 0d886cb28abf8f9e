// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

type EfiDppACPISubType EfiDevPathProtoSubType

const (
	DppAcpiTypeDevPath EfiDppACPISubType = iota + 1
	DppAcpiTypeExpandedDevPath
	DppAcpiTypeADR
	DppAcpiTypeNVDIMM
)

func (e EfiDppACPISubType) String() string {
	switch e {
	case DppAcpiTypeDevPath:
		return "Device Path"
	case DppAcpiTypeExpandedDevPath:
		return "Expanded Device Path"
	case DppAcpiTypeADR:
		return "_ADR"
	case DppAcpiTypeNVDIMM:
		return "NVDIMM"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(e))
	}
}

// compressed EISA ids, as used for _HID/_CID
const pnpEisaIdConst = 0x41d0

func EisaPnpId(n uint16) uint32 { return uint32(n)<<16 | pnpEisaIdConst }

func isPnpId(id uint32) bool { return id&0xffff == pnpEisaIdConst }

//PNPxxxx for compressed pnp ids, hex otherwise
func eisaIdText(id uint32) string {
	if isPnpId(id) {
		return fmt.Sprintf("PNP%04X", id>>16)
	}
	return fmt.Sprintf("0x%x", id)
}

type DppAcpiDevPath struct {
	dppBase
	HID, UID uint32
}

var _ DevicePathNode = (*DppAcpiDevPath)(nil)

func ParseDppAcpiDevPath(h DppHdr, b []byte) (*DppAcpiDevPath, error) {
	if h.Length != 12 {
		return nil, EParse
	}
	return &DppAcpiDevPath{
		dppBase: dppBase{Hdr: h, data: b},
		HID:     binary.LittleEndian.Uint32(b[:4]),
		UID:     binary.LittleEndian.Uint32(b[4:8]),
	}, nil
}

// NewDppPciRoot returns the ACPI node for PCI root bridge uid.
func NewDppPciRoot(uid uint32) *DppAcpiDevPath {
	data := make([]byte, 8)
	hid := EisaPnpId(0x0a03)
	binary.LittleEndian.PutUint32(data, hid)
	binary.LittleEndian.PutUint32(data[4:], uid)
	return &DppAcpiDevPath{
		dppBase: newBase(DppTypeACPI, EfiDevPathProtoSubType(DppAcpiTypeDevPath), data),
		HID:     hid,
		UID:     uid,
	}
}

func (e *DppAcpiDevPath) Text(TextOpts) string {
	if isPnpId(e.HID) {
		switch e.HID >> 16 {
		case 0x0a03:
			return fmt.Sprintf("PciRoot(0x%x)", e.UID)
		case 0x0a08:
			return fmt.Sprintf("PcieRoot(0x%x)", e.UID)
		case 0x0604:
			return fmt.Sprintf("Floppy(0x%x)", e.UID)
		case 0x0301:
			return fmt.Sprintf("Keyboard(0x%x)", e.UID)
		case 0x0501:
			return fmt.Sprintf("Serial(0x%x)", e.UID)
		case 0x0401:
			return fmt.Sprintf("ParallelPort(0x%x)", e.UID)
		}
		return fmt.Sprintf("Acpi(PNP%04X,0x%x)", e.HID>>16, e.UID)
	}
	return fmt.Sprintf("Acpi(0x%08x,0x%x)", e.HID, e.UID)
}

type DppAcpiExDevPath struct {
	dppBase
	HID, UID, CID          uint32
	HIDSTR, UIDSTR, CIDSTR string
}

var _ DevicePathNode = (*DppAcpiExDevPath)(nil)

func ParseDppAcpiExDevPath(h DppHdr, b []byte) (*DppAcpiExDevPath, error) {
	if h.Length < 19 {
		return nil, EParse
	}
	ex := &DppAcpiExDevPath{
		dppBase: dppBase{Hdr: h, data: b},
		HID:     binary.LittleEndian.Uint32(b[:4]),
		UID:     binary.LittleEndian.Uint32(b[4:8]),
		CID:     binary.LittleEndian.Uint32(b[8:12]),
	}
	b = b[12:]
	var err error
	for _, s := range []*string{&ex.HIDSTR, &ex.UIDSTR, &ex.CIDSTR} {
		*s, err = readToNull(b)
		if err != nil {
			return nil, err
		}
		b = b[len(*s)+1:]
	}
	return ex, nil
}

func (e *DppAcpiExDevPath) Text(opts TextOpts) string {
	if opts.DisplayOnly {
		//when present, the strings identify the device better than the ids
		hid, cid := eisaIdText(e.HID), eisaIdText(e.CID)
		if e.HIDSTR != "" {
			hid = e.HIDSTR
		}
		if e.CIDSTR != "" {
			cid = e.CIDSTR
		}
		uid := fmt.Sprintf("0x%x", e.UID)
		if e.UIDSTR != "" {
			uid = e.UIDSTR
		}
		return fmt.Sprintf("AcpiEx(%s,%s,%s)", hid, cid, uid)
	}
	return fmt.Sprintf("AcpiEx(%s,%s,0x%x,%s,%s,%s)", eisaIdText(e.HID), eisaIdText(e.CID), e.UID, e.HIDSTR, e.CIDSTR, e.UIDSTR)
}

type DppAcpiAdr struct {
	dppBase
	ADR []uint32
}

var _ DevicePathNode = (*DppAcpiAdr)(nil)

func ParseDppAcpiAdr(h DppHdr, b []byte) (*DppAcpiAdr, error) {
	if len(b) < 4 || len(b)%4 != 0 {
		return nil, EParse
	}
	adr := &DppAcpiAdr{dppBase: dppBase{Hdr: h, data: b}}
	for ; len(b) >= 4; b = b[4:] {
		adr.ADR = append(adr.ADR, binary.LittleEndian.Uint32(b))
	}
	return adr, nil
}

func (e *DppAcpiAdr) Text(TextOpts) string {
	vals := make([]string, len(e.ADR))
	for i, a := range e.ADR {
		vals[i] = fmt.Sprintf("0x%x", a)
	}
	return "AcpiAdr(" + strings.Join(vals, ",") + ")"
}

func readToNull(b []byte) (string, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", EParse
	}
	return string(b[:i]), nil
}
