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
	"os"
	fp "path/filepath"
	"strconv"
	"strings"

	"github.com/starscouts/brisbane/pkg/log"
)

//http://kurtqiao.github.io/uefi/2015/01/13/uefi-boot-manager.html

// EfiVarDir is where variables are read from. Both the efivarfs layout
// (<name>-<guid>, 4 bytes of attributes then data) and the older sysfs layout
// (<name>-<guid>/data) are understood.
var EfiVarDir = "/sys/firmware/efi/efivars"

const (
	GlobalVariableGuid = "8be4df61-93ca-11d2-aa0d-00e098032b8c"
)

//a generic efi var
type EfiVar struct {
	Uuid, Name string
	Data       []byte
}
type EfiVars []EfiVar

func ReadVar(uuid, name string) (e EfiVar, err error) {
	e.Uuid = uuid
	e.Name = name
	path := fp.Join(EfiVarDir, name+"-"+uuid)
	fi, err := os.Stat(path)
	if err != nil {
		return e, err
	}
	if fi.IsDir() {
		e.Data, err = os.ReadFile(fp.Join(path, "data"))
		return e, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if len(raw) < 4 {
		return e, fmt.Errorf("efivar %s: %d bytes, too short for attributes", name, len(raw))
	}
	e.Data = raw[4:]
	return e, nil
}

//Returns efi variables matching filter. A nil filter passes everything.
func ReadVars(filt VarFilter) (vars EfiVars) {
	entries, err := fp.Glob(fp.Join(EfiVarDir, "*-*"))
	if err != nil {
		log.Logf("error reading efi vars: %s", err)
		return
	}
	for _, entry := range entries {
		base := fp.Base(entry)
		if strings.Count(base, "-") < 5 {
			log.Logf("skipping %s - not a valid var?", base)
			continue
		}
		components := strings.SplitN(base, "-", 2)
		if filt != nil && !filt(components[1], components[0]) {
			continue
		}
		v, err := ReadVar(components[1], components[0])
		if err != nil {
			log.Logf("reading efi var %s: %s", base, err)
			continue
		}
		vars = append(vars, v)
	}
	return
}

// ReadBootCurrent returns the number of the boot entry the firmware used
// for this boot.
func ReadBootCurrent() (uint16, error) {
	v, err := ReadVar(GlobalVariableGuid, "BootCurrent")
	if err != nil {
		return 0, err
	}
	if len(v.Data) != 2 {
		return 0, fmt.Errorf("BootCurrent: bad length %d", len(v.Data))
	}
	return binary.LittleEndian.Uint16(v.Data), nil
}

/* EfiLoadOption is the data struct used for vars such as BootXXXX.
    typedef struct _EFI_LOAD_OPTION {
        UINT32 Attributes;
        UINT16 FilePathListLength;
        // CHAR16 Description[];
        // EFI_DEVICE_PATH_PROTOCOL FilePathList[];
        // UINT8 OptionalData[];
    } EFI_LOAD_OPTION;
*/
type EfiLoadOption struct {
	Attributes   uint32
	Description  string
	FilePathList []DevicePath
	OptionalData []byte
}

const LoadOptionActive = 0x1

func ParseLoadOption(data []byte) (*EfiLoadOption, error) {
	if len(data) < 6 {
		return nil, EParse
	}
	lo := &EfiLoadOption{Attributes: binary.LittleEndian.Uint32(data)}
	fplLen := int(binary.LittleEndian.Uint16(data[4:]))
	rest := data[6:]
	n := utf16Len(rest)
	if n < 0 {
		log.Logf("load option: unterminated description")
		return nil, EParse
	}
	var err error
	if lo.Description, err = DecodeUTF16(rest[:n]); err != nil {
		return nil, err
	}
	rest = rest[n:]
	if len(rest) < fplLen {
		log.Logf("load option: file path list length %d exceeds remaining %d", fplLen, len(rest))
		return nil, EParse
	}
	lo.OptionalData = rest[fplLen:]
	fpl := rest[:fplLen]
	for len(fpl) > 0 {
		var dp DevicePath
		dp, fpl, err = parseDevicePath(fpl)
		if err != nil {
			return nil, err
		}
		lo.FilePathList = append(lo.FilePathList, dp)
	}
	if len(lo.FilePathList) == 0 {
		return nil, EParse
	}
	return lo, nil
}

// Bytes encodes the load option.
func (lo *EfiLoadOption) Bytes() []byte {
	var fpl []byte
	for _, dp := range lo.FilePathList {
		fpl = append(fpl, dp.Bytes()...)
	}
	out := make([]byte, 6, 6+len(fpl))
	binary.LittleEndian.PutUint32(out, lo.Attributes)
	binary.LittleEndian.PutUint16(out[4:], uint16(len(fpl)))
	out = append(out, EncodeUTF16(lo.Description, true)...)
	out = append(out, fpl...)
	return append(out, lo.OptionalData...)
}

//A boot entry. Will have the name BootXXXX where XXXX is hexadecimal
type BootEntryVar struct {
	Number uint16 //from the var name
	EfiLoadOption
}
type BootEntryVars []*BootEntryVar

// Gets BootXXXX var, if it exists
func ReadBootVar(num uint16) (*BootEntryVar, error) {
	v, err := ReadVar(GlobalVariableGuid, fmt.Sprintf("Boot%04X", num))
	if err != nil {
		return nil, err
	}
	return v.BootVar()
}

// Reads BootCurrent, and from there gets the BootXXXX var referenced.
func ReadCurrentBootVar() (*BootEntryVar, error) {
	curr, err := ReadBootCurrent()
	if err != nil {
		return nil, err
	}
	return ReadBootVar(curr)
}

//decodes an efivar as a boot entry. use IsBootEntry() to screen first.
func (v EfiVar) BootVar() (*BootEntryVar, error) {
	if !v.IsBootEntry() {
		return nil, fmt.Errorf("%s is not a boot entry", v.Name)
	}
	num, _ := strconv.ParseUint(v.Name[4:], 16, 16)
	lo, err := ParseLoadOption(v.Data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", v.Name, err)
	}
	return &BootEntryVar{Number: uint16(num), EfiLoadOption: *lo}, nil
}

func (b BootEntryVar) String() string {
	var paths []string
	for _, dp := range b.FilePathList {
		paths = append(paths, dp.String())
	}
	return fmt.Sprintf("Boot%04X: attrs=0x%x, desc=%q, path=%s, opts=%x", b.Number, b.Attributes, b.Description, strings.Join(paths, ";"), b.OptionalData)
}

//returns list of boot entries (BootXXXX). Entries that fail to parse are logged and skipped.
//note that BootCurrent, BootOptionSupport, BootNext, BootOrder, etc do not count as boot entries.
func AllBootEntryVars() BootEntryVars {
	return ReadVars(BootEntryFilter).BootEntries()
}

//A type of function used to filter efi vars
type VarFilter func(uuid, name string) bool

// A VarFilter passing boot-related vars. These are a superset of those
// returned by BootEntryFilter.
func BootVarFilter(uuid, name string) bool {
	return uuid == GlobalVariableGuid && strings.HasPrefix(name, "Boot")
}

// A VarFilter passing boot entries.
func BootEntryFilter(uuid, name string) bool {
	return EfiVar{Uuid: uuid, Name: name}.IsBootEntry()
}

//Returns a filter negating the given filter.
func NotFilter(f VarFilter) VarFilter {
	return func(u, n string) bool { return !f(u, n) }
}

func (vars EfiVars) Filter(filt VarFilter) EfiVars {
	var res EfiVars
	for _, v := range vars {
		if filt(v.Uuid, v.Name) {
			res = append(res, v)
		}
	}
	return res
}

//from a list of efi vars, parse any that are boot entries and return list of them
func (vars EfiVars) BootEntries() (bootvars BootEntryVars) {
	for _, v := range vars {
		if !v.IsBootEntry() {
			continue
		}
		b, err := v.BootVar()
		if err != nil {
			log.Logf("%s", err)
			continue
		}
		bootvars = append(bootvars, b)
	}
	return
}

func (e EfiVar) IsBootEntry() bool {
	if e.Uuid != GlobalVariableGuid || len(e.Name) != 8 || e.Name[:4] != "Boot" {
		return false
	}
	_, err := strconv.ParseUint(e.Name[4:], 16, 16)
	return err == nil
}
