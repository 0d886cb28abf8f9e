// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package boot

import (
	"errors"
	"fmt"

	"github.com/starscouts/brisbane/pkg/efi"
)

// FaultKind classifies everything that ends a boot attempt.
type FaultKind int

const (
	EnvironmentInit FaultKind = iota
	DevicePath
	KernelNotFound
	KernelOutOfMemory
	KernelRead
	KernelLoad
	KernelReported
	KernelStart
	UnexpectedReturn
)

func (k FaultKind) String() string {
	switch k {
	case EnvironmentInit:
		return "EnvironmentInit"
	case DevicePath:
		return "DevicePath"
	case KernelNotFound:
		return "KernelNotFound"
	case KernelOutOfMemory:
		return "KernelOutOfMemory"
	case KernelRead:
		return "KernelRead"
	case KernelLoad:
		return "KernelLoad"
	case KernelReported:
		return "KernelReported"
	case KernelStart:
		return "KernelStart"
	case UnexpectedReturn:
		return "UnexpectedReturn"
	}
	return fmt.Sprintf("FaultKind(%d)", int(k))
}

var (
	errConsoleReset = errors.New("console reset failed")
	errNoConsole    = errors.New("firmware supplied no console")
	errNoServices   = errors.New("firmware supplied no boot services")
	errEmptyKernel  = errors.New("kernel image is empty")
)

// Fault ends a boot attempt. Status is the firmware status involved, if
// there was one. Err is the underlying error.
type Fault struct {
	Kind   FaultKind
	Status efi.Status
	Err    error
}

func newFault(kind FaultKind, err error) *Fault {
	f := &Fault{Kind: kind, Err: err}
	f.Status, _ = efi.StatusOf(err)
	return f
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

//the status if there is one, otherwise the error
func (f *Fault) detail() interface{} {
	if f.Status != efi.Success {
		return f.Status
	}
	return f.Err
}

// Message is the single line shown to the operator.
func (f *Fault) Message() string {
	switch f.Kind {
	case EnvironmentInit:
		if errors.Is(f.Err, errConsoleReset) {
			return fmt.Sprintf("Failed to clear screen buffer: %v", f.detail())
		}
		return fmt.Sprintf("Failed to initialize boot environment: %v", f.Err)
	case DevicePath:
		return fmt.Sprintf("Failed to determine boot device: %v", f.detail())
	case KernelNotFound:
		return "Kernel not found."
	case KernelOutOfMemory:
		return "Not enough system memory to load the kernel."
	case KernelRead:
		return fmt.Sprintf("Internal system error while reading kernel: %v", f.detail())
	case KernelLoad:
		return fmt.Sprintf("Internal system error while loading kernel: %v", f.detail())
	case KernelReported:
		return "System error encountered in kernel (look above)."
	case KernelStart:
		return fmt.Sprintf("Internal system error while starting kernel: %v", f.detail())
	case UnexpectedReturn:
		return "Operation completed successfully."
	}
	return fmt.Sprintf("Unknown error: %v", f.Err)
}
