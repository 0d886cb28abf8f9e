// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package paths holds locations shared by mage targets.
package paths

import (
	"os"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/sh"

	"github.com/starscouts/brisbane/pkg/log"
)

var (
	RepoRoot, ImportPath, WorkDir string

	// GoDirs - dirs containing code; limits go test to specific paths, else
	// it would scan the work dir too.
	GoDirs []string

	//the loader binary
	LoaderBin string
	//boot medium layout; the kernel ends up at MediumDir/brisbane/boot/kernel
	MediumDir string

	UtilCmds []string
)

func init() {
	var err error
	RepoRoot, err = repoRoot()
	if err != nil {
		log.Logf("Cannot determine repo root.")
	}
	WorkDir, err = workDir()
	if err != nil {
		log.Logf("Cannot determine workdir.")
	}
	ImportPath, err = sh.Output("go", "list", "-m")
	if err != nil {
		log.Logf("Cannot determine import path.")
	}
	ImportPath = strings.TrimSpace(ImportPath)

	GoDirs = []string{
		ImportPath + "/cmd/...",
		ImportPath + "/pkg/...",
	}
	LoaderBin = fp.Join(WorkDir, "brisbane-boot")
	MediumDir = fp.Join(WorkDir, "medium")
	UtilCmds = []string{ImportPath + "/cmd/util/..."}
}

// Find repo root - from BRISBANE_ROOT env var, if set. Otherwise search
// parents for go.mod.
func repoRoot() (string, error) {
	rr := os.Getenv("BRISBANE_ROOT")
	if len(rr) > 0 {
		return rr, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(fp.Join(wd, "go.mod")); err == nil {
			break
		}
		wd = fp.Dir(wd)
		if len(wd) < 2 {
			return "", os.ErrInvalid
		}
	}
	err = os.Setenv("BRISBANE_ROOT", wd)
	if err != nil {
		return "", err
	}
	return wd, nil
}

// Get the working dir location from env BRISBANE_WORKDIR if set, otherwise
// use a dir adjacent to repo root so that 'go test ./...' skips it.
func workDir() (string, error) {
	wd := os.Getenv("BRISBANE_WORKDIR")
	if len(wd) > 0 {
		return wd, nil
	}
	wd = fp.Join(fp.Dir(RepoRoot), fp.Base(RepoRoot)+"_work")
	err := os.Setenv("BRISBANE_WORKDIR", wd)
	if err != nil {
		return "", err
	}
	return wd, nil
}

//expands pattern via go list - note that pattern isn't a shell glob
func Pkglist(patterns ...string) ([]string, error) {
	args := []string{"list"}
	args = append(args, patterns...)
	out, err := sh.Output("go", args...)
	if err != nil {
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}
