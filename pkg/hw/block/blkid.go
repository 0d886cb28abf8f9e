// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package block locates linux block devices and identifies the filesystems on them.
package block

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/starscouts/brisbane/pkg/log"

	"github.com/google/shlex"
)

var (
	Verbose bool

	//path to the blkid binary
	Blkid = "/sbin/blkid"
)

func parseBlkidOut(out []byte) (binfo BlkInfo, err error) {
	split := strings.SplitN(string(out), ":", 2)
	if len(split) != 2 {
		err = fmt.Errorf("can't parse %s", string(out))
		return
	}
	elements, err := shlex.Split(split[1])
	if err != nil {
		return
	}
	for _, e := range elements {
		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			log.Logf("blkid %s: can't parse %s, skipping", split[0], e)
			continue
		}
		//shlex removes spaces and quotes - we don't need to
		k, v := kv[0], kv[1]

		switch strings.ToUpper(k) {
		case "UUID":
			binfo.UUID = v
		case "TYPE":
			binfo.FsType = FsFromStr(v)
		case "LABEL":
			binfo.Label = v
		case "PARTUUID":
			binfo.Partition = true
			binfo.PartUUID = strings.ToLower(v)
		case "PARTLABEL":
			binfo.PartLabel = v
		case "USAGE":
			binfo.Usage = v
		default:
			if Verbose {
				log.Logf("blkid %s: ignoring %s", split[0], e)
			}
		}
	}
	if binfo.FsType.Recognized() {
		binfo.Partition = true
		if binfo.Usage == "" {
			binfo.Usage = "filesystem"
		}
	}
	return
}

type FsType int

const (
	FsUnknown FsType = iota
	FsExt4
	FsNtfs
	FsFat
	FsExfat
	FsIso9660
)

func FsFromStr(s string) FsType {
	switch strings.ToLower(s) {
	case "ext2", "ext3", "ext4":
		return FsExt4
	case "ntfs", "ntfs-3g":
		return FsNtfs
	case "fat", "vfat":
		return FsFat
	case "exfat":
		return FsExfat
	case "iso9660":
		return FsIso9660
	}
	return FsUnknown
}

func (f FsType) String() (t string) {
	switch f {
	case FsUnknown:
		t = "unknown"
	case FsExt4:
		t = "ext4"
	case FsNtfs:
		t = "ntfs"
	case FsFat:
		t = "vfat"
	case FsExfat:
		t = "exfat"
	case FsIso9660:
		t = "iso9660"
	default:
		t = "fsType VALUE OUT OF RANGE"
	}
	return
}

func (f FsType) Recognized() bool {
	return f != FsUnknown && f <= FsIso9660
}

type BlkInfo struct {
	FsType    FsType
	UUID      string
	Partition bool
	PartUUID  string //lower case
	PartLabel string
	Label     string
	Usage     string
	Device    string
}

func GetInfo(device string) (bi BlkInfo, err error) {
	blkid := exec.Command(Blkid, device)
	out, err := blkid.CombinedOutput()
	if err != nil {
		log.Logf("error %s executing %v\noutput:%s\n", err, blkid.Args, out)
		return
	}
	bi, err = parseBlkidOut(out)
	bi.Device = device
	return
}

//a function that returns false if given bi should be filtered out
type BlkIncludeFn func(bi BlkInfo) bool

// BFiltPartUUID passes only the partition with the given PARTUUID.
func BFiltPartUUID(partUUID string) BlkIncludeFn {
	partUUID = strings.ToLower(partUUID)
	return func(bi BlkInfo) bool { return bi.PartUUID == partUUID }
}

//return a BlkInfo for each blockdevice passing both filters. nil filters pass everything.
func GetFilesystems(blkfilter BlkIncludeFn, devfilter DevIncludeFn) []BlkInfo {
	var infos []BlkInfo
	for _, d := range FilterBlockDevs(devfilter) {
		bi, err := GetInfo(d)
		if err != nil {
			continue
		}
		if blkfilter != nil && !blkfilter(bi) {
			continue
		}
		infos = append(infos, bi)
	}
	return infos
}
