// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package uefi

import (
	"os"
	fp "path/filepath"

	"github.com/starscouts/brisbane/pkg/hw/block"
	"github.com/starscouts/brisbane/pkg/log"

	"github.com/u-root/u-root/pkg/mount"
	"golang.org/x/sys/unix"
)

type EfiPathSegmentResolver interface {
	//Returns description, does not require cleanup
	String() string

	//Mount fs, etc. You must call Cleanup() eventually.
	Resolve(suggestedBasePath string) (string, error)

	//For devices, returns BlkInfo. Returns nil otherwise.
	BlockInfo() *block.BlkInfo

	//Unmount fs, free resources, etc
	Cleanup()
}

// HddResolver mounts a partition read-only.
type HddResolver struct {
	block.BlkInfo
	mountPoint string
}

var _ EfiPathSegmentResolver = (*HddResolver)(nil)

func (r *HddResolver) String() string { return r.BlkInfo.Device }

func (r *HddResolver) Resolve(basePath string) (string, error) {
	if len(r.mountPoint) > 0 {
		return r.mountPoint, nil
	}
	var err error
	if len(basePath) == 0 {
		basePath, err = os.MkdirTemp("", "uefiPath")
		if err != nil {
			return "", err
		}
	} else if err = os.MkdirAll(basePath, 0755); err != nil {
		return "", err
	}
	err = mount.Mount(r.BlkInfo.Device, basePath, r.BlkInfo.FsType.String(), "", unix.MS_RDONLY)
	if err != nil {
		log.Logf("mounting %s on %s: %s", r.BlkInfo.Device, basePath, err)
		return "", err
	}
	r.mountPoint = basePath
	return r.mountPoint, nil
}

func (r *HddResolver) BlockInfo() *block.BlkInfo { return &r.BlkInfo }

func (r *HddResolver) Cleanup() {
	if len(r.mountPoint) > 0 {
		if err := mount.Unmount(r.mountPoint, false, true); err != nil {
			log.Logf("unmounting %s: %s", r.mountPoint, err)
		}
	}
	r.mountPoint = ""
}

// PathResolver joins a file path node onto whatever the device resolved to.
type PathResolver string

var _ EfiPathSegmentResolver = (*PathResolver)(nil)

func (r *PathResolver) String() string { return string(*r) }

func (r *PathResolver) Resolve(basePath string) (string, error) {
	if len(basePath) == 0 {
		log.Logf("uefi.PathResolver: empty base path")
	}
	return fp.Join(basePath, string(*r)), nil
}

func (r *PathResolver) BlockInfo() *block.BlkInfo { return nil }

func (r *PathResolver) Cleanup() {}

// Resolvers returns a resolver for each node that has one. Nodes that only
// describe the route to a device (Pci, Sata, ...) are skipped. At least one
// node must resolve.
func (dp DevicePath) Resolvers() ([]EfiPathSegmentResolver, error) {
	var list []EfiPathSegmentResolver
	for _, node := range dp {
		r, err := node.Resolver()
		if err == EUnimpl {
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	if len(list) == 0 {
		return nil, ENotFound
	}
	return list, nil
}
