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
	"net"
	"strings"
)

type EfiDppMsgSubType EfiDevPathProtoSubType

const (
	DppMsgTypeATAPI      EfiDppMsgSubType = iota + 1
	DppMsgTypeSCSI                        //2
	DppMsgTypeFibreCh                     //3
	DppMsgTypeFirewire                    //4
	DppMsgTypeUSB                         //5
	DppMsgTypeIIO                         //6
	_                                     //7
	_                                     //8
	DppMsgTypeInfiniband                  //9
	DppMsgTypeVendor                      //10 //uart flow control, sas are subtypes
	DppMsgTypeMAC                         //11
	DppMsgTypeIP4                         //12
	DppMsgTypeIP6                         //13
	DppMsgTypeUART                        //14
	DppMsgTypeUSBClass                    //15
	DppMsgTypeUSBWWID                     //16
	DppMsgTypeDevLU                       //17
	DppMsgTypeSATA                        //18
	DppMsgTypeISCSI                       //19
	DppMsgTypeVLAN                        //20
	_                                     //21
	DppMsgTypeSASEx                       //22
	DppMsgTypeNVME                        //23
	DppMsgTypeURI                         //24
	DppMsgTypeUFS                         //25
	DppMsgTypeSD                          //26
	DppMsgTypeBT                          //27
	DppMsgTypeWiFi                        //28
	DppMsgTypeeMMC                        //29
	DppMsgTypeBLE                         //30
	DppMsgTypeDNS                         //31
	DppMsgTypeNVDIMM                      //32
	DppMsgTypeRest                        //documented as 32, likely 33
)

func (e EfiDppMsgSubType) String() string {
	switch e {
	case DppMsgTypeATAPI:
		return "ATAPI"
	case DppMsgTypeSCSI:
		return "SCSI"
	case DppMsgTypeFibreCh:
		return "Fibre Channel"
	case DppMsgTypeFirewire:
		return "1394"
	case DppMsgTypeUSB:
		return "USB"
	case DppMsgTypeIIO:
		return "I20"
	case DppMsgTypeInfiniband:
		return "Infiniband"
	case DppMsgTypeVendor:
		return "Vendor"
	case DppMsgTypeMAC:
		return "MAC"
	case DppMsgTypeIP4:
		return "IPv4"
	case DppMsgTypeIP6:
		return "IPv6"
	case DppMsgTypeUART:
		return "UART"
	case DppMsgTypeUSBClass:
		return "USB Class"
	case DppMsgTypeUSBWWID:
		return "USB WWID"
	case DppMsgTypeDevLU:
		return "Device Logical Unit"
	case DppMsgTypeSATA:
		return "SATA"
	case DppMsgTypeISCSI:
		return "iSCSI"
	case DppMsgTypeVLAN:
		return "VLAN"
	case DppMsgTypeSASEx:
		return "SAS Ex"
	case DppMsgTypeNVME:
		return "NVME"
	case DppMsgTypeURI:
		return "URI"
	case DppMsgTypeUFS:
		return "UFS"
	case DppMsgTypeSD:
		return "SD"
	case DppMsgTypeBT:
		return "Bluetooth"
	case DppMsgTypeWiFi:
		return "WiFi"
	case DppMsgTypeeMMC:
		return "eMMC"
	case DppMsgTypeBLE:
		return "BLE"
	case DppMsgTypeDNS:
		return "DNS"
	case DppMsgTypeNVDIMM:
		return "NVDIMM"
	case DppMsgTypeRest:
		return "REST"
	default:
		return fmt.Sprintf("UNKNOWN-0x%x", uint8(e))
	}
}

//pg 293
type DppMsgATAPI struct {
	dppBase
	Primary, Master bool
	LUN             uint16
}

var _ DevicePathNode = (*DppMsgATAPI)(nil)

func ParseDppMsgATAPI(h DppHdr, b []byte) (*DppMsgATAPI, error) {
	if h.Length != 8 {
		return nil, EParse
	}
	return &DppMsgATAPI{
		dppBase: dppBase{Hdr: h, data: b},
		Primary: b[0] == 0,
		Master:  b[1] == 0,
		LUN:     binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

func (e *DppMsgATAPI) Text(opts TextOpts) string {
	if opts.DisplayOnly {
		return fmt.Sprintf("Ata(0x%x)", e.LUN)
	}
	ps, ms := "Secondary", "Slave"
	if e.Primary {
		ps = "Primary"
	}
	if e.Master {
		ms = "Master"
	}
	return fmt.Sprintf("Ata(%s,%s,0x%x)", ps, ms, e.LUN)
}

type DppMsgSCSI struct {
	dppBase
	PUN, LUN uint16
}

var _ DevicePathNode = (*DppMsgSCSI)(nil)

func ParseDppMsgSCSI(h DppHdr, b []byte) (*DppMsgSCSI, error) {
	if len(b) != 4 {
		return nil, EParse
	}
	return &DppMsgSCSI{
		dppBase: dppBase{Hdr: h, data: b},
		PUN:     binary.LittleEndian.Uint16(b[:2]),
		LUN:     binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

func (e *DppMsgSCSI) Text(TextOpts) string { return fmt.Sprintf("Scsi(0x%x,0x%x)", e.PUN, e.LUN) }

type DppMsgUSB struct {
	dppBase
	ParentPort, Interface uint8
}

var _ DevicePathNode = (*DppMsgUSB)(nil)

func ParseDppMsgUSB(h DppHdr, b []byte) (*DppMsgUSB, error) {
	if len(b) != 2 {
		return nil, EParse
	}
	return &DppMsgUSB{
		dppBase:    dppBase{Hdr: h, data: b},
		ParentPort: b[0],
		Interface:  b[1],
	}, nil
}

func (e *DppMsgUSB) Text(TextOpts) string {
	return fmt.Sprintf("USB(0x%x,0x%x)", e.ParentPort, e.Interface)
}

//pg 300
type DppMsgMAC struct {
	dppBase
	Mac    [32]byte //0-padded
	IfType uint8    //RFC3232; ethernet is 1
}

var _ DevicePathNode = (*DppMsgMAC)(nil)

func ParseDppMsgMAC(h DppHdr, b []byte) (*DppMsgMAC, error) {
	if h.Length != 37 {
		return nil, EParse
	}
	mac := &DppMsgMAC{
		dppBase: dppBase{Hdr: h, data: b},
		IfType:  b[32],
	}
	copy(mac.Mac[:], b[:32])
	return mac, nil
}

// HwAddr trims the padding for the interface types where the length is known.
func (e *DppMsgMAC) HwAddr() net.HardwareAddr {
	if e.IfType == 0 || e.IfType == 1 {
		return net.HardwareAddr(e.Mac[:6])
	}
	return net.HardwareAddr(e.Mac[:])
}

func (e *DppMsgMAC) Text(TextOpts) string {
	return fmt.Sprintf("MAC(%x,0x%x)", []byte(e.HwAddr()), e.IfType)
}

type DppMsgIPv4 struct {
	dppBase
	Local, Remote         net.IP
	LocalPort, RemotePort uint16
	Protocol              uint16
	Static                bool
	Gateway, Mask         net.IP //nil in the older 19-byte form
}

var _ DevicePathNode = (*DppMsgIPv4)(nil)

func ParseDppMsgIPv4(h DppHdr, b []byte) (*DppMsgIPv4, error) {
	if len(b) != 15 && len(b) != 23 {
		return nil, EParse
	}
	ip := &DppMsgIPv4{
		dppBase:    dppBase{Hdr: h, data: b},
		Local:      net.IPv4(b[0], b[1], b[2], b[3]),
		Remote:     net.IPv4(b[4], b[5], b[6], b[7]),
		LocalPort:  binary.LittleEndian.Uint16(b[8:10]),
		RemotePort: binary.LittleEndian.Uint16(b[10:12]),
		Protocol:   binary.LittleEndian.Uint16(b[12:14]),
		Static:     b[14] != 0,
	}
	if len(b) == 23 {
		ip.Gateway = net.IPv4(b[15], b[16], b[17], b[18])
		ip.Mask = net.IPv4(b[19], b[20], b[21], b[22])
	}
	return ip, nil
}

func (e *DppMsgIPv4) Text(opts TextOpts) string {
	if opts.DisplayOnly {
		return fmt.Sprintf("IPv4(%s)", e.Remote)
	}
	var proto string
	switch e.Protocol {
	case 6:
		proto = "TCP"
	case 17:
		proto = "UDP"
	default:
		proto = fmt.Sprintf("0x%x", e.Protocol)
	}
	origin := "DHCP"
	if e.Static {
		origin = "Static"
	}
	fields := []string{e.Remote.String(), proto, origin, e.Local.String()}
	if e.Gateway != nil {
		fields = append(fields, e.Gateway.String(), e.Mask.String())
	}
	return "IPv4(" + strings.Join(fields, ",") + ")"
}

type DppMsgUSBClass struct {
	dppBase
	VendorID, ProductID       uint16
	Class, SubClass, Protocol uint8
}

var _ DevicePathNode = (*DppMsgUSBClass)(nil)

func ParseDppMsgUSBClass(h DppHdr, b []byte) (*DppMsgUSBClass, error) {
	if len(b) != 7 {
		return nil, EParse
	}
	return &DppMsgUSBClass{
		dppBase:   dppBase{Hdr: h, data: b},
		VendorID:  binary.LittleEndian.Uint16(b[:2]),
		ProductID: binary.LittleEndian.Uint16(b[2:4]),
		Class:     b[4],
		SubClass:  b[5],
		Protocol:  b[6],
	}, nil
}

var usbClassShortcuts = map[uint8]string{
	0x01: "UsbAudio",
	0x02: "UsbCDCControl",
	0x03: "UsbHID",
	0x06: "UsbImage",
	0x07: "UsbPrinter",
	0x08: "UsbMassStorage",
	0x09: "UsbHub",
	0x0a: "UsbCDCData",
	0x0b: "UsbSmartCard",
	0x0e: "UsbVideo",
	0xdc: "UsbDiagnostic",
	0xe0: "UsbWireless",
}

func (e *DppMsgUSBClass) Text(opts TextOpts) string {
	if name, ok := usbClassShortcuts[e.Class]; ok && opts.AllowShortcuts {
		return fmt.Sprintf("%s(0x%x,0x%x,0x%x,0x%x)", name, e.VendorID, e.ProductID, e.SubClass, e.Protocol)
	}
	return fmt.Sprintf("UsbClass(0x%x,0x%x,0x%x,0x%x,0x%x)", e.VendorID, e.ProductID, e.Class, e.SubClass, e.Protocol)
}

type DppMsgSATA struct {
	dppBase
	HBAPort, PortMultiplierPort, LUN uint16
}

var _ DevicePathNode = (*DppMsgSATA)(nil)

func ParseDppMsgSATA(h DppHdr, b []byte) (*DppMsgSATA, error) {
	if len(b) != 6 {
		return nil, EParse
	}
	return &DppMsgSATA{
		dppBase:            dppBase{Hdr: h, data: b},
		HBAPort:            binary.LittleEndian.Uint16(b[:2]),
		PortMultiplierPort: binary.LittleEndian.Uint16(b[2:4]),
		LUN:                binary.LittleEndian.Uint16(b[4:6]),
	}, nil
}

func NewDppMsgSATA(port, pmp, lun uint16) *DppMsgSATA {
	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data, port)
	binary.LittleEndian.PutUint16(data[2:], pmp)
	binary.LittleEndian.PutUint16(data[4:], lun)
	return &DppMsgSATA{
		dppBase:            newBase(DppTypeMessaging, EfiDevPathProtoSubType(DppMsgTypeSATA), data),
		HBAPort:            port,
		PortMultiplierPort: pmp,
		LUN:                lun,
	}
}

func (e *DppMsgSATA) Text(TextOpts) string {
	return fmt.Sprintf("Sata(0x%x,0x%x,0x%x)", e.HBAPort, e.PortMultiplierPort, e.LUN)
}

type DppMsgNVMe struct {
	dppBase
	NamespaceID uint32
	EUI64       [8]byte
}

var _ DevicePathNode = (*DppMsgNVMe)(nil)

func ParseDppMsgNVMe(h DppHdr, b []byte) (*DppMsgNVMe, error) {
	if len(b) != 12 {
		return nil, EParse
	}
	n := &DppMsgNVMe{
		dppBase:     dppBase{Hdr: h, data: b},
		NamespaceID: binary.LittleEndian.Uint32(b[:4]),
	}
	copy(n.EUI64[:], b[4:12])
	return n, nil
}

//EUI-64 is printed most significant byte first
func (e *DppMsgNVMe) Text(TextOpts) string {
	parts := make([]string, 8)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02X", e.EUI64[7-i])
	}
	return fmt.Sprintf("NVMe(0x%x,%s)", e.NamespaceID, strings.Join(parts, "-"))
}

type DppMsgURI struct {
	dppBase
	URI string
}

var _ DevicePathNode = (*DppMsgURI)(nil)

func ParseDppMsgURI(h DppHdr, b []byte) (*DppMsgURI, error) {
	return &DppMsgURI{dppBase: dppBase{Hdr: h, data: b}, URI: string(b)}, nil
}

func (e *DppMsgURI) Text(TextOpts) string { return fmt.Sprintf("Uri(%s)", e.URI) }
