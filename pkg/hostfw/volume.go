// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package hostfw

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/starscouts/brisbane/pkg/efi"
	"github.com/starscouts/brisbane/pkg/hw/uefi"
	"github.com/starscouts/brisbane/pkg/log"

	"github.com/dustin/go-humanize"
)

// statusErr attaches the closest firmware status to err.
func statusErr(err error) error {
	if _, ok := efi.StatusOf(err); ok {
		return err
	}
	var st efi.Status
	var errno syscall.Errno
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, uefi.ENotFound):
		st = efi.NotFound
	case errors.As(err, &errno) && errno == syscall.ENOMEM:
		st = efi.OutOfResources
	case errors.Is(err, os.ErrPermission):
		st = efi.AccessDenied
	case errors.Is(err, uefi.EParse):
		st = efi.VolumeCorrupted
	default:
		st = efi.DeviceError
	}
	return fmt.Errorf("%v: %w", err, st)
}

type volume struct {
	root     string
	resolver uefi.EfiPathSegmentResolver //nil if nothing to clean up
}

func (v *volume) ReadFile(path string) ([]byte, error) {
	name, err := uefi.LocateFile(v.root, path)
	if err != nil {
		return nil, statusErr(err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, statusErr(err)
	}
	log.Logf("read %s (%s)", name, humanize.IBytes(uint64(len(data))))
	return data, nil
}

func (v *volume) Close() error {
	if v.resolver != nil {
		v.resolver.Cleanup()
		v.resolver = nil
	}
	return nil
}

// OpenVolume mounts the partition dp names. Only the device nodes of dp are
// considered; a trailing file path is ignored.
func (fw *Firmware) OpenVolume(dp uefi.DevicePath) (efi.Volume, error) {
	if fw.opts.MediumRoot != "" {
		return &volume{root: fw.opts.MediumRoot}, nil
	}
	resolvers, err := dp.DeviceOnly().Resolvers()
	if err != nil {
		log.Logf("no file system for %s: %s", dp, err)
		return nil, statusErr(err)
	}
	var dev uefi.EfiPathSegmentResolver
	for _, r := range resolvers {
		if r.BlockInfo() != nil {
			dev = r
		}
	}
	if dev == nil {
		log.Logf("no block device in %s", dp)
		return nil, efi.Unsupported
	}
	root, err := dev.Resolve(fw.opts.MountBase)
	if err != nil {
		return nil, statusErr(err)
	}
	log.Logf("mounted %s (%s) at %s", dev, dev.BlockInfo().FsType, root)
	return &volume{root: root, resolver: dev}, nil
}
