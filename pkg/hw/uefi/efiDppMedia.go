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
	"strings"

	"github.com/starscouts/brisbane/pkg/guid"
	"github.com/starscouts/brisbane/pkg/hw/block"
	"github.com/starscouts/brisbane/pkg/log"
)

type EfiDppMediaSubType EfiDevPathProtoSubType

const (
	//DppTypeMedia, pg 319 +
	DppMTypeHdd      EfiDppMediaSubType = iota + 1 //0x01
	DppMTypeCd                                     //0x02
	DppMTypeVendor                                 //0x03
	DppMTypeFilePath                               //0x04 //p321
	DppMTypeMedia                                  //0x05 //media protocol, i.e. filesystem format
	DppMTypePIWGFF                                 //0x06
	DppMTypePIWGFV                                 //0x07
	DppMTypeRelOff                                 //0x08
	DppMTypeRAM                                    //0x09
)

func (e EfiDppMediaSubType) String() string {
	switch e {
	case DppMTypeHdd:
		return "HDD"
	case DppMTypeCd:
		return "CD"
	case DppMTypeVendor:
		return "Vendor"
	case DppMTypeFilePath:
		return "FilePath"
	case DppMTypeMedia:
		return "Media"
	case DppMTypePIWGFF:
		return "PIWG Firmware File"
	case DppMTypePIWGFV:
		return "PIWG Firmware Volume"
	case DppMTypeRelOff:
		return "Relative Offset"
	case DppMTypeRAM:
		return "RAMDisk"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(e))
	}
}

const (
	PartFmtMBR = 0x01
	PartFmtGPT = 0x02

	SigTypeNone = 0x00
	SigTypeMBR  = 0x01
	SigTypeGUID = 0x02
)

//struct in EfiDevicePathProtocol for DppMTypeHdd
type DppMediaHDD struct {
	dppBase
	PartNum   uint32         //index into partition table for MBR or GPT; 0 indicates entire disk
	PartStart uint64         //starting LBA
	PartSize  uint64         //size in LB's
	PartSig   guid.MixedGuid //format determined by SigType below. unused bytes must be 0x0.
	PartFmt   uint8          //0x01 for MBR, 0x02 for GPT
	SigType   uint8          //0x00 - none; 0x01 - 32bit MBR sig (@ 0x1b8); 0x02 - GUID
}

var _ DevicePathNode = (*DppMediaHDD)(nil)

func ParseDppMediaHdd(h DppHdr, b []byte) (*DppMediaHDD, error) {
	if len(b) != 38 {
		return nil, EParse
	}
	hdd := &DppMediaHDD{
		dppBase:   dppBase{Hdr: h, data: b},
		PartNum:   binary.LittleEndian.Uint32(b[:4]),
		PartStart: binary.LittleEndian.Uint64(b[4:12]),
		PartSize:  binary.LittleEndian.Uint64(b[12:20]),
		PartFmt:   b[36],
		SigType:   b[37],
	}
	copy(hdd.PartSig[:], b[20:36])
	return hdd, nil
}

// NewDppMediaGptHdd describes a GPT partition identified by its unique GUID.
func NewDppMediaGptHdd(partNum uint32, start, size uint64, sig guid.MixedGuid) *DppMediaHDD {
	data := make([]byte, 38)
	binary.LittleEndian.PutUint32(data, partNum)
	binary.LittleEndian.PutUint64(data[4:], start)
	binary.LittleEndian.PutUint64(data[12:], size)
	copy(data[20:36], sig[:])
	data[36] = PartFmtGPT
	data[37] = SigTypeGUID
	hdd, _ := ParseDppMediaHdd(DppHdr{ProtoType: DppTypeMedia, ProtoSubType: EfiDevPathProtoSubType(DppMTypeHdd), Length: 42}, data)
	return hdd
}

//             (part#,pttype,sig,begin,length)
func (e *DppMediaHDD) Text(TextOpts) string {
	switch e.SigType {
	case SigTypeMBR:
		return fmt.Sprintf("HD(%d,MBR,0x%08x,0x%x,0x%x)", e.PartNum, e.mbrSig(), e.PartStart, e.PartSize)
	case SigTypeGUID:
		return fmt.Sprintf("HD(%d,GPT,%s,0x%x,0x%x)", e.PartNum, e.PartSig, e.PartStart, e.PartSize)
	default:
		return fmt.Sprintf("HD(%d,%d,0,0x%x,0x%x)", e.PartNum, e.SigType, e.PartStart, e.PartSize)
	}
}

func (e *DppMediaHDD) mbrSig() uint32 { return binary.LittleEndian.Uint32(e.PartSig[:4]) }

// PartUUID is the partition identifier as reported by blkid's PARTUUID.
func (e *DppMediaHDD) PartUUID() (string, error) {
	switch e.SigType {
	case SigTypeGUID:
		return e.PartSig.ToStdEnc().String(), nil
	case SigTypeMBR:
		//for MBR, blkid reports PARTUUID as mbrId-partNum
		return fmt.Sprintf("%08x-%02x", e.mbrSig(), e.PartNum), nil
	default:
		//no sig; would need to compare partition #/start/len
		return "", ENotFound
	}
}

func (e *DppMediaHDD) Resolver() (EfiPathSegmentResolver, error) {
	id, err := e.PartUUID()
	if err != nil {
		log.Logf("%s: no signature, cannot identify", e.Text(FullText))
		return nil, err
	}
	blocks := block.GetFilesystems(block.BFiltPartUUID(id), nil)
	if len(blocks) != 1 {
		log.Logf("%s: %d candidate block devices: %#v", e.Text(FullText), len(blocks), blocks)
		return nil, ENotFound
	}
	return &HddResolver{BlkInfo: blocks[0]}, nil
}

type DppMediaCdrom struct {
	dppBase
	BootEntry           uint32
	PartStart, PartSize uint64
}

var _ DevicePathNode = (*DppMediaCdrom)(nil)

func ParseDppMediaCdrom(h DppHdr, b []byte) (*DppMediaCdrom, error) {
	if len(b) != 20 {
		return nil, EParse
	}
	return &DppMediaCdrom{
		dppBase:   dppBase{Hdr: h, data: b},
		BootEntry: binary.LittleEndian.Uint32(b[:4]),
		PartStart: binary.LittleEndian.Uint64(b[4:12]),
		PartSize:  binary.LittleEndian.Uint64(b[12:20]),
	}, nil
}

func (e *DppMediaCdrom) Text(opts TextOpts) string {
	if opts.DisplayOnly {
		return fmt.Sprintf("CDROM(0x%x)", e.BootEntry)
	}
	return fmt.Sprintf("CDROM(0x%x,0x%x,0x%x)", e.BootEntry, e.PartStart, e.PartSize)
}

//struct in EfiDevicePathProtocol for DppMTypeFilePath.
//if multiple are included in a path, concatenate them.
type DppMediaFilePath struct {
	dppBase
	PathName string //stored as null-terminated utf16, backslash-separated
}

var _ DevicePathNode = (*DppMediaFilePath)(nil)

func ParseDppMediaFilePath(h DppHdr, b []byte) (*DppMediaFilePath, error) {
	path, err := DecodeUTF16(b)
	if err != nil {
		return nil, err
	}
	return &DppMediaFilePath{
		dppBase:  dppBase{Hdr: h, data: b},
		PathName: strings.TrimRight(path, "\000"),
	}, nil
}

// NewDppMediaFilePath builds a file path node. Forward slashes are converted
// to the backslashes firmware expects.
func NewDppMediaFilePath(path string) *DppMediaFilePath {
	path = strings.ReplaceAll(path, "/", `\`)
	return &DppMediaFilePath{
		dppBase:  newBase(DppTypeMedia, EfiDevPathProtoSubType(DppMTypeFilePath), EncodeUTF16(path, true)),
		PathName: path,
	}
}

func (e *DppMediaFilePath) Text(TextOpts) string { return e.PathName }

func (e *DppMediaFilePath) Resolver() (EfiPathSegmentResolver, error) {
	pr := PathResolver(strings.ReplaceAll(e.PathName, `\`, "/"))
	return &pr, nil
}

//struct in EfiDevicePathProtocol for DppMTypeMedia
type DppMediaProtocol struct {
	dppBase
	Protocol guid.MixedGuid
}

var _ DevicePathNode = (*DppMediaProtocol)(nil)

func ParseDppMediaProtocol(h DppHdr, b []byte) (*DppMediaProtocol, error) {
	if len(b) != 16 {
		return nil, EParse
	}
	m := &DppMediaProtocol{dppBase: dppBase{Hdr: h, data: b}}
	copy(m.Protocol[:], b)
	return m, nil
}

func (e *DppMediaProtocol) Text(TextOpts) string { return fmt.Sprintf("Media(%s)", e.Protocol) }

//struct in EfiDevicePathProtocol for DppMTypePIWGFV
type DppMediaPIWGFV struct {
	dppBase
	Fv guid.MixedGuid
}

var _ DevicePathNode = (*DppMediaPIWGFV)(nil)

func ParseDppMediaPIWGFV(h DppHdr, b []byte) (*DppMediaPIWGFV, error) {
	if h.Length != 20 {
		return nil, EParse
	}
	fv := &DppMediaPIWGFV{dppBase: dppBase{Hdr: h, data: b}}
	copy(fv.Fv[:], b)
	return fv, nil
}

func (e *DppMediaPIWGFV) Text(TextOpts) string { return fmt.Sprintf("Fv(%s)", e.Fv) }

//struct in EfiDevicePathProtocol for DppMTypePIWGFF
type DppMediaPIWGFF struct {
	dppBase
	Ff guid.MixedGuid
}

var _ DevicePathNode = (*DppMediaPIWGFF)(nil)

func ParseDppMediaPIWGFF(h DppHdr, b []byte) (*DppMediaPIWGFF, error) {
	if h.Length != 20 {
		return nil, EParse
	}
	ff := &DppMediaPIWGFF{dppBase: dppBase{Hdr: h, data: b}}
	copy(ff.Ff[:], b)
	return ff, nil
}

func (e *DppMediaPIWGFF) Text(TextOpts) string { return fmt.Sprintf("FvFile(%s)", e.Ff) }

//struct in EfiDevicePathProtocol for DppMTypeRelOff
type DppMediaRelOff struct {
	dppBase
	Start, End uint64
}

var _ DevicePathNode = (*DppMediaRelOff)(nil)

func ParseDppMediaRelOff(h DppHdr, b []byte) (*DppMediaRelOff, error) {
	if len(b) != 20 {
		return nil, EParse
	}
	//first 4 bytes are reserved
	return &DppMediaRelOff{
		dppBase: dppBase{Hdr: h, data: b},
		Start:   binary.LittleEndian.Uint64(b[4:12]),
		End:     binary.LittleEndian.Uint64(b[12:20]),
	}, nil
}

func (e *DppMediaRelOff) Text(TextOpts) string { return fmt.Sprintf("Offset(0x%x,0x%x)", e.Start, e.End) }
