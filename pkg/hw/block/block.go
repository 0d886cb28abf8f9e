// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package block

import (
	"os"
	fp "path/filepath"
	"strings"
)

var (
	// sys/class/block is a superset of sys/block; it also contains partitions
	SysClassBlock = "/sys/class/block"
	DevDir        = "/dev"
)

//A function that returns true if the entry is to be kept. Note that syspath
//is likely relative to /sys/class/block.
type DevIncludeFn func(syspath string) bool

func DFiltOnlyParts(syspath string) bool {
	if !fp.IsAbs(syspath) {
		syspath = fp.Join(SysClassBlock, syspath)
	}
	_, err := os.Stat(fp.Join(syspath, "partition"))
	return err == nil
}

func devices(sysdir string, include DevIncludeFn) (devs []string) {
	dir, err := os.ReadDir(sysdir)
	if err != nil {
		return
	}
	for _, entry := range dir {
		link, err := os.Readlink(fp.Join(sysdir, entry.Name()))
		if err != nil || strings.Contains(link, "devices/virtual/block") {
			continue
		}
		if include != nil && !include(link) {
			continue
		}
		devs = append(devs, fp.Join(DevDir, entry.Name()))
	}
	return devs
}

//Return a path for each non-virtual block device, including partitions.
func AllBlockDevs() []string {
	return devices(SysClassBlock, nil)
}

//like AllBlockDevs, but uses a filter function to limit the results
func FilterBlockDevs(filter DevIncludeFn) []string {
	return devices(SysClassBlock, filter)
}
