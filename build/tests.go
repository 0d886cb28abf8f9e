// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/magefile/mage/mg"

	"github.com/starscouts/brisbane/build/paths"
)

/* Env vars
RUN - passed to go test -run. Only tests that match the given regex will run.
COUNT - passed to go test -count. Use 1 to bypass test result caching, and
    higher values to repeat tests.
FUZZTIME - how long Tests.Fuzz runs. Default 30s.
*/

type Tests mg.Namespace

//runs unit tests
func (Tests) Unit(ctx context.Context) error {
	args, err := testArgs(ctx, nil)
	if err != nil {
		return err
	}
	return gotest(ctx, args...)
}

//fuzzes the device path parser
func (Tests) Fuzz(ctx context.Context) error {
	fuzztime := os.Getenv("FUZZTIME")
	if fuzztime == "" {
		fuzztime = "30s"
	}
	return gotest(ctx, "-run", "^$", "-fuzz", "FuzzParseDevicePath", "-fuzztime", fuzztime,
		paths.ImportPath+"/pkg/hw/uefi")
}

//args for 'go test': pkg, -run, -count, -timeout
func testArgs(ctx context.Context, pkgs []string) ([]string, error) {
	if len(pkgs) == 0 {
		pkgs = paths.GoDirs
	}
	args := []string{}
	//pass timeout arg?
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		dur := time.Until(deadline) - 20*time.Second //less time than the exact deadline so go test can print out message about what test it's on
		if dur < 0 {
			return nil, mg.Fatal(1, "deadline exceeded")
		}
		args = append(args, "-timeout", dur.String())
	}
	args = append(args, pkgs...)

	if run := os.Getenv("RUN"); run != "" {
		args = append(args, "-run", run)
	}
	if count := os.Getenv("COUNT"); count != "" {
		c, err := strconv.Atoi(count)
		if err != nil {
			return nil, mg.Fatalf(3, "COUNT must be unset or numeric: %s", err)
		}
		if c > 0 {
			args = append(args, "-count", count)
		}
	}
	return args, nil
}

func gotest(ctx context.Context, args ...string) error {
	tst := exec.CommandContext(ctx, "go", "test")
	tst.Args = append(tst.Args, args...)
	tst.Dir = paths.RepoRoot
	tst.Env = os.Environ()
	fmt.Printf("running %v...\n", tst.Args)
	out, err := tst.CombinedOutput()
	fmt.Println(string(out))
	if err != nil {
		return mg.Fatal(4, err)
	}
	return nil
}
