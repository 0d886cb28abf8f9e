// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/starscouts/brisbane/pkg/log"
)

var (
	Verbose bool

	EParse    = errors.New("parse error")
	ENotFound = errors.New("Described device not found")
	EUnimpl   = errors.New("Not implemented")
)

// TextOpts are the two switches of EFI_DEVICE_PATH_TO_TEXT_PROTOCOL.
//
// DisplayOnly drops fields that are only needed to reconstruct the binary
// path (e.g. Ata() loses primary/secondary). AllowShortcuts permits
// well-known vendor nodes to render as their short names (VenPcAnsi(), etc).
type TextOpts struct {
	DisplayOnly    bool
	AllowShortcuts bool
}

// FullText is the loader's policy for operator-visible paths: full detail,
// no shortcuts.
var FullText = TextOpts{DisplayOnly: false, AllowShortcuts: false}

// DevicePathNode is one node of a device path.
type DevicePathNode interface {
	Header() DppHdr

	//subtype as human readable
	ProtoSubTypeStr() string

	//node as text, per the UEFI device path text conventions
	Text(opts TextOpts) string

	//binary form including the 4-byte header
	Bytes() []byte

	//returns an EfiPathSegmentResolver; in the case of filesystems, this locates and mounts the device.
	Resolver() (EfiPathSegmentResolver, error)
}

// DevicePath is a parsed device path, without its terminating end node.
// Multi-instance paths carry *DppEndInstance nodes between instances.
type DevicePath []DevicePathNode

// ParseDevicePath decodes a binary device path. The input must be terminated
// by an end-entire node and must contain nothing after it.
func ParseDevicePath(in []byte) (DevicePath, error) {
	dp, rest, err := parseDevicePath(in)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		log.Logf("remaining bytes %x", rest)
		return nil, EParse
	}
	return dp, nil
}

// parseDevicePath decodes nodes up to and including the end-entire node, and
// returns any bytes remaining after it. Load options use the remainder.
func parseDevicePath(in []byte) (DevicePath, []byte, error) {
	reachedEnd := false
	b := in
	var list DevicePath
loop:
	for len(b) >= 4 {
		h := DppHdr{
			ProtoType:    EfiDevPathProtoType(b[0]),
			ProtoSubType: EfiDevPathProtoSubType(b[1]),
			Length:       binary.LittleEndian.Uint16(b[2:4]),
		}
		if h.Length < 4 {
			log.Logf("invalid struct - len %d remain %d: 0x%x", h.Length, len(b), b)
			return nil, nil, EParse
		}
		if len(b) < int(h.Length) {
			log.Logf("undersize %s: %d < %d %x", h.ProtoType, len(b), h.Length, b)
			return nil, nil, EParse
		}
		data := b[4:h.Length:h.Length]
		b = b[h.Length:]
		if Verbose {
			log.Logf("%s subtype %s", h.ProtoType, h.ProtoSubTypeStr())
		}
		var p DevicePathNode
		var err error
		switch h.ProtoType {
		case DppTypeHw:
			switch EfiDppHwSubType(h.ProtoSubType) {
			case DppHTypePCI:
				p, err = ParseDppHwPci(h, data)
			case DppHTypeVendor:
				p, err = ParseDppVendor(h, data)
			case DppHTypeCtrl:
				p, err = ParseDppHwCtrl(h, data)
			}
		case DppTypeACPI:
			switch EfiDppACPISubType(h.ProtoSubType) {
			case DppAcpiTypeDevPath:
				p, err = ParseDppAcpiDevPath(h, data)
			case DppAcpiTypeExpandedDevPath:
				p, err = ParseDppAcpiExDevPath(h, data)
			case DppAcpiTypeADR:
				p, err = ParseDppAcpiAdr(h, data)
			}
		case DppTypeMessaging:
			switch EfiDppMsgSubType(h.ProtoSubType) {
			case DppMsgTypeATAPI:
				p, err = ParseDppMsgATAPI(h, data)
			case DppMsgTypeSCSI:
				p, err = ParseDppMsgSCSI(h, data)
			case DppMsgTypeUSB:
				p, err = ParseDppMsgUSB(h, data)
			case DppMsgTypeVendor:
				p, err = ParseDppVendor(h, data)
			case DppMsgTypeMAC:
				p, err = ParseDppMsgMAC(h, data)
			case DppMsgTypeIP4:
				p, err = ParseDppMsgIPv4(h, data)
			case DppMsgTypeUSBClass:
				p, err = ParseDppMsgUSBClass(h, data)
			case DppMsgTypeSATA:
				p, err = ParseDppMsgSATA(h, data)
			case DppMsgTypeNVME:
				p, err = ParseDppMsgNVMe(h, data)
			case DppMsgTypeURI:
				p, err = ParseDppMsgURI(h, data)
			}
		case DppTypeMedia:
			switch EfiDppMediaSubType(h.ProtoSubType) {
			case DppMTypeHdd:
				p, err = ParseDppMediaHdd(h, data)
			case DppMTypeCd:
				p, err = ParseDppMediaCdrom(h, data)
			case DppMTypeVendor:
				p, err = ParseDppVendor(h, data)
			case DppMTypeFilePath:
				p, err = ParseDppMediaFilePath(h, data)
			case DppMTypeMedia:
				p, err = ParseDppMediaProtocol(h, data)
			case DppMTypePIWGFF:
				p, err = ParseDppMediaPIWGFF(h, data)
			case DppMTypePIWGFV:
				p, err = ParseDppMediaPIWGFV(h, data)
			case DppMTypeRelOff:
				p, err = ParseDppMediaRelOff(h, data)
			}
		case DppTypeEnd:
			st := EfiDppEndSubType(h.ProtoSubType)
			if st == DppETypeEndStartNew {
				p = &DppEndInstance{dppBase{Hdr: h, data: data}}
				break
			}
			if st != DppETypeEndEntire {
				log.Logf("unexpected end subtype %s", st)
			}
			reachedEnd = true
			break loop
		}
		if err != nil {
			log.Logf("%s %s: %s", h.ProtoType, h.ProtoSubTypeStr(), err)
			return nil, nil, err
		}
		if p == nil {
			if Verbose {
				log.Logf("unhandled %s subtype %s: %q", h.ProtoType, h.ProtoSubTypeStr(), data)
			}
			p = &EfiDevPathRaw{dppBase{Hdr: h, data: data}}
		}
		list = append(list, p)
	}
	if !reachedEnd {
		log.Logf("device path incorrectly terminated")
		return nil, nil, EParse
	}
	return list, b, nil
}

// Text renders the path. Nodes are separated by '/', instances by ','.
func (dp DevicePath) Text(opts TextOpts) string {
	var sb strings.Builder
	for n, node := range dp {
		if _, end := node.(*DppEndInstance); end {
			sb.WriteString(",")
			continue
		}
		if n > 0 {
			if _, afterEnd := dp[n-1].(*DppEndInstance); !afterEnd {
				sb.WriteString("/")
			}
		}
		sb.WriteString(node.Text(opts))
	}
	return sb.String()
}

func (dp DevicePath) String() string { return dp.Text(FullText) }

// Bytes encodes the path, appending an end-entire node.
func (dp DevicePath) Bytes() []byte {
	var out []byte
	for _, node := range dp {
		out = append(out, node.Bytes()...)
	}
	return append(out, byte(DppTypeEnd), byte(DppETypeEndEntire), 4, 0)
}

// Equal compares the binary encodings.
func (dp DevicePath) Equal(other DevicePath) bool {
	return string(dp.Bytes()) == string(other.Bytes())
}

// Append returns a new path with nodes added at the end. dp is not modified.
func (dp DevicePath) Append(nodes ...DevicePathNode) DevicePath {
	out := make(DevicePath, 0, len(dp)+len(nodes))
	out = append(out, dp...)
	return append(out, nodes...)
}

// DeviceOnly returns the leading nodes that identify the device, dropping
// file path nodes and anything after the first of them. This is what
// LocateDevicePath would match a filesystem handle against.
func (dp DevicePath) DeviceOnly() DevicePath {
	for i, node := range dp {
		h := node.Header()
		if h.ProtoType == DppTypeMedia && EfiDppMediaSubType(h.ProtoSubType) == DppMTypeFilePath {
			return dp[:i:i]
		}
	}
	return dp
}

// FilePath returns the concatenated file path nodes, or "" if there are none.
func (dp DevicePath) FilePath() string {
	var parts []string
	for _, node := range dp {
		if f, ok := node.(*DppMediaFilePath); ok {
			parts = append(parts, strings.Trim(f.PathName, `\`))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return `\` + strings.Join(parts, `\`)
}

// DppHdr - all variants start with the following three fields:
//    typedef struct _EFI_DEVICE_PATH_PROTOCOL {
//        UINT8 Type;
//        UINT8 SubType;
//        UINT8 Length[2];
//    } EFI_DEVICE_PATH_PROTOCOL;
//
// https://uefi.org/sites/default/files/resources/UEFI_Spec_2_8_A_Feb14.pdf
// pg 286 +
type DppHdr struct {
	ProtoType    EfiDevPathProtoType
	ProtoSubType EfiDevPathProtoSubType
	Length       uint16
}

func (h DppHdr) ProtoSubTypeStr() string {
	switch h.ProtoType {
	case DppTypeHw:
		return EfiDppHwSubType(h.ProtoSubType).String()
	case DppTypeACPI:
		return EfiDppACPISubType(h.ProtoSubType).String()
	case DppTypeMessaging:
		return EfiDppMsgSubType(h.ProtoSubType).String()
	case DppTypeMedia:
		return EfiDppMediaSubType(h.ProtoSubType).String()
	case DppTypeEnd:
		return EfiDppEndSubType(h.ProtoSubType).String()
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(h.ProtoSubType))
	}
}

type EfiDevPathProtoType uint8

const (
	DppTypeHw        EfiDevPathProtoType = iota + 1 //0x01, pg 288
	DppTypeACPI                                     //0x02, pg 290
	DppTypeMessaging                                //0x03, pg 293
	DppTypeMedia                                    //0x04, pg 319
	DppTypeBBS                                      //0x05, pg 287
	DppTypeEnd       EfiDevPathProtoType = 0x7f
)

func (e EfiDevPathProtoType) String() string {
	switch e {
	case DppTypeHw:
		return "HW"
	case DppTypeACPI:
		return "ACPI"
	case DppTypeMessaging:
		return "Messaging"
	case DppTypeMedia:
		return "Media"
	case DppTypeBBS:
		return "BBS"
	case DppTypeEnd:
		return "End"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(e))
	}
}

type EfiDevPathProtoSubType uint8

type EfiDppEndSubType EfiDevPathProtoSubType

const (
	//DppTypeEnd, pg 287-288
	DppETypeEndStartNew EfiDppEndSubType = 0x01
	DppETypeEndEntire   EfiDppEndSubType = 0xff
)

func (e EfiDppEndSubType) String() string {
	switch e {
	case DppETypeEndEntire:
		return "End"
	case DppETypeEndStartNew:
		return "End one, start another"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(e))
	}
}

// dppBase holds what every node has: its header and the bytes following it.
// Keeping the bytes makes re-encoding exact even for fields we don't decode.
type dppBase struct {
	Hdr  DppHdr
	data []byte
}

func newBase(t EfiDevPathProtoType, st EfiDevPathProtoSubType, data []byte) dppBase {
	return dppBase{
		Hdr: DppHdr{
			ProtoType:    t,
			ProtoSubType: st,
			Length:       uint16(4 + len(data)),
		},
		data: data,
	}
}

func (b *dppBase) Header() DppHdr          { return b.Hdr }
func (b *dppBase) ProtoSubTypeStr() string { return b.Hdr.ProtoSubTypeStr() }

func (b *dppBase) Bytes() []byte {
	out := make([]byte, 4, 4+len(b.data))
	out[0] = byte(b.Hdr.ProtoType)
	out[1] = byte(b.Hdr.ProtoSubType)
	binary.LittleEndian.PutUint16(out[2:], uint16(4+len(b.data)))
	return append(out, b.data...)
}

func (b *dppBase) Resolver() (EfiPathSegmentResolver, error) { return nil, EUnimpl }

//separates instances of a multi-instance path
type DppEndInstance struct{ dppBase }

var _ DevicePathNode = (*DppEndInstance)(nil)

func (e *DppEndInstance) Text(TextOpts) string { return "," }

//a node we have no decoder for
type EfiDevPathRaw struct{ dppBase }

var _ DevicePathNode = (*EfiDevPathRaw)(nil)

func (e *EfiDevPathRaw) Raw() []byte { return e.data }

// Text follows the generic form used by firmware for unknown nodes.
func (e *EfiDevPathRaw) Text(TextOpts) string {
	var name string
	switch e.Hdr.ProtoType {
	case DppTypeHw:
		name = "HardwarePath"
	case DppTypeACPI:
		name = "AcpiPath"
	case DppTypeMessaging:
		name = "Msg"
	case DppTypeMedia:
		name = "MediaPath"
	case DppTypeBBS:
		name = "BbsPath"
	default:
		return fmt.Sprintf("Path(%d,%d%s)", uint8(e.Hdr.ProtoType), uint8(e.Hdr.ProtoSubType), hexSuffix(e.data))
	}
	return fmt.Sprintf("%s(%d%s)", name, uint8(e.Hdr.ProtoSubType), hexSuffix(e.data))
}

//",0a0b0c" or "" for empty data
func hexSuffix(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return fmt.Sprintf(",%x", b)
}

/* https://uefi.org/sites/default/files/resources/UEFI_Spec_2_8_A_Feb14.pdf
Boot0007* UEFI OS       HD(1,GPT,81635ccd-1b4f-4d3f-b7b7-f78a5b029f35,0x40,0xf000)/File(\EFI\BOOT\BOOTX64.EFI)..BO

00000000  01 00 00 00 5e 00 55 00  45 00 46 00 49 00 20 00  |....^.U.E.F.I. .|
00000010  4f 00 53 00 00 00[04 01  2a 00 01 00 00 00 40 00  |O.S.....*.....@.|
00000020  00 00 00 00 00 00 00 f0  00 00 00 00 00 00 cd 5c  |...............\|
00000030  63 81 4f 1b 3f 4d b7 b7  f7 8a 5b 02 9f 35 02 02  |c.O.?M....[..5..|
00000040  04 04 30 00 5c 00 45 00  46 00 49 00 5c 00 42 00  |..0.\.E.F.I.\.B.|
00000050  4f 00 4f 00 54 00 5c 00  42 00 4f 00 4f 00 54 00  |O.O.T.\.B.O.O.T.|
00000060  58 00 36 00 34 00 2e 00  45 00 46 00 49 00 00 00  |X.6.4...E.F.I...|
00000070  7f ff 04 00]00 00 42 4f                           |......BO|
                     ^     ^     ][ = end, beginning of dpp list
type       = 0x04 (media)
subtype    = 0x01 (hdd)
struct len = 42 bytes always
part num   = 0x01
part start = 0x40
part size  = 0xf000
part sig   = 0xCD5C63814F1B3F4DB7B7F78A5B029F35
part fmt   = 0x02 (GPT)
sig type   = 0x02 (GUID)
=====
type       = 0x04 (media)
subtype    = 0x04 (file path)
struct len = 0x0030 + 4
path       = \EFI\BOOT\BOOTX64.EFI
====
type       = 0x7f (end)
subtype    = 0xff (end of entire path)
struct len = 4
*/
