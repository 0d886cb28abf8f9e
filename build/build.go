// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage

/*
 build file for mage build system
 list tgts with
go run magerunner.go -l

 build tgt with
go run magerunner.go tgt
*/

package main

import (
	"context"
	"fmt"
	"os"
	fp "path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"

	"github.com/starscouts/brisbane/build/paths"
)

func BuildAll(ctx context.Context) error {
	fmt.Println("mage running")
	mg.CtxDeps(ctx, Build.Loader, Build.Util)
	return nil
}

type Build mg.Namespace

// the loader, with version and build time stamped in
func (Build) Loader(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	pkg := paths.ImportPath + "/cmd/brisbane-boot"
	rebuild, err := target.Dir(paths.LoaderBin, fp.Join(paths.RepoRoot, "cmd"), fp.Join(paths.RepoRoot, "pkg"))
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println("skipping build of", pkg)
		return nil
	}
	env := map[string]string{"CGO_ENABLED": "0", "GOOS": "linux"}
	return build(env, "-o", paths.LoaderBin, pkg)
}

// Misc utility binaries. Output is to GOPATH/bin since we don't specify -o.
func (Build) Util(ctx context.Context) error {
	pkgs, err := paths.Pkglist(paths.UtilCmds...)
	if err != nil {
		return err
	}
	args := []string{"build"}
	args = append(args, pkgs...)
	return sh.Run("go", args...)
}

// Lays out a boot medium in the work dir. The kernel is taken from $KERNEL.
func (Build) Medium(ctx context.Context) error {
	mg.CtxDeps(ctx, Build.Loader)
	kernel := os.Getenv("KERNEL")
	if kernel == "" {
		return mg.Fatal(2, "env var KERNEL must name a kernel image")
	}
	dest := fp.Join(paths.MediumDir, "brisbane", "boot", "kernel")
	rebuild, err := target.Path(dest, kernel)
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println("medium is up to date")
		return nil
	}
	if err = os.MkdirAll(fp.Dir(dest), 0755); err != nil {
		return err
	}
	if err = sh.Copy(dest, kernel); err != nil {
		return err
	}
	return sh.Copy(fp.Join(paths.MediumDir, "brisbane", "boot", "loader"), paths.LoaderBin)
}

//build go code with desired flags
var build func(env map[string]string, args ...string) error

func init() {
	version := os.Getenv("BRISBANE_VERSION")
	if version == "" {
		version = "(devel)"
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	ldflags := fmt.Sprintf("-X 'main.version=%s' -X 'main.buildTime=%s' -s -w", version, stamp)
	build = RunWCmd(nil, "go", "build", "-trimpath", "-ldflags", ldflags)
}

//sh.RunCmd modified to call RunWith
func RunWCmd(env map[string]string, cmd string, args ...string) func(env2 map[string]string, args ...string) error {
	return func(env2 map[string]string, args2 ...string) error {
		var cenv map[string]string
		if env == nil {
			cenv = env2
		} else {
			cenv = env
			for k, v := range env2 {
				cenv[k] = v
			}
		}
		return sh.RunWith(cenv, cmd, append(args, args2...)...)
	}
}

func workdir() {
	//ignore errors
	_ = os.MkdirAll(paths.WorkDir, 0755)
}
