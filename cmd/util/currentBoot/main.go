// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Command currentBoot shows the boot entry the firmware used, and where the
//loader would look for the kernel.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/starscouts/brisbane/pkg/boot"
	"github.com/starscouts/brisbane/pkg/hw/block"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"
	"github.com/starscouts/brisbane/pkg/log/flags"
)

//must run as root, as efi vars are not accessible otherwise
func main() {
	flag.BoolVar(&block.Verbose, "v", false, "log blkid output")
	flag.Parse()
	if err := log.AddConsoleLog(os.Stdout, flags.NA); err != nil {
		log.Fatalf("%s", err)
	}
	v, err := uefi.ReadCurrentBootVar()
	if err != nil {
		log.Fatalf("unable to read var (%s)... are you root?", err)
		return // unreachable but keeps linter happy
	}
	log.Logf("%s", v)
	for _, dp := range v.FilePathList {
		log.Logf("path: %s", dp.Text(uefi.FullText))
		log.Logf("display: %s", dp.Text(uefi.TextOpts{DisplayOnly: true}))
		log.Logf("display, shortcuts: %s", dp.Text(uefi.TextOpts{DisplayOnly: true, AllowShortcuts: true}))
		resolvers, err := dp.DeviceOnly().Resolvers()
		if err != nil {
			log.Logf("cannot resolve: %s", err)
			continue
		}
		for _, r := range resolvers {
			if loc := kernelLocation(r); loc != "" {
				log.Logf("%s", loc)
			}
		}
	}
}

// where on a resolved device the loader finds the kernel; empty if r is not
// a block device
func kernelLocation(r uefi.EfiPathSegmentResolver) string {
	bi := r.BlockInfo()
	if bi == nil {
		return ""
	}
	rel := strings.ReplaceAll(boot.KernelPath, `\`, "/")
	return fmt.Sprintf("kernel would be read from %s on %s (%s, label %q)", rel, r, bi.FsType, bi.Label)
}
