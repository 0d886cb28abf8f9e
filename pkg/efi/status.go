// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package efi

import (
	"errors"
	"fmt"
)

// Status is an EFI_STATUS. Values with the high bit set are errors, other
// non-zero values are warnings.
type Status uint64

const ErrorBit Status = 1 << 63

const (
	Success Status = 0

	LoadError           = ErrorBit | 1
	InvalidParameter    = ErrorBit | 2
	Unsupported         = ErrorBit | 3
	BadBufferSize       = ErrorBit | 4
	BufferTooSmall      = ErrorBit | 5
	NotReady            = ErrorBit | 6
	DeviceError         = ErrorBit | 7
	WriteProtected      = ErrorBit | 8
	OutOfResources      = ErrorBit | 9
	VolumeCorrupted     = ErrorBit | 10
	VolumeFull          = ErrorBit | 11
	NoMedia             = ErrorBit | 12
	MediaChanged        = ErrorBit | 13
	NotFound            = ErrorBit | 14
	AccessDenied        = ErrorBit | 15
	NoResponse          = ErrorBit | 16
	NoMapping           = ErrorBit | 17
	Timeout             = ErrorBit | 18
	NotStarted          = ErrorBit | 19
	AlreadyStarted      = ErrorBit | 20
	Aborted             = ErrorBit | 21
	IcmpError           = ErrorBit | 22
	TftpError           = ErrorBit | 23
	ProtocolError       = ErrorBit | 24
	IncompatibleVersion = ErrorBit | 25
	SecurityViolation   = ErrorBit | 26
	CrcError            = ErrorBit | 27
	EndOfMedia          = ErrorBit | 28
	EndOfFile           = ErrorBit | 31
	InvalidLanguage     = ErrorBit | 32
	CompromisedData     = ErrorBit | 33
	HttpError           = ErrorBit | 35
)

const (
	WarnUnknownGlyph   Status = 1
	WarnDeleteFailure  Status = 2
	WarnWriteFailure   Status = 3
	WarnBufferTooSmall Status = 4
	WarnStaleData      Status = 5
	WarnFileSystem     Status = 6
	WarnResetRequired  Status = 7
)

var statusNames = map[Status]string{
	Success:             "EFI_SUCCESS",
	LoadError:           "EFI_LOAD_ERROR",
	InvalidParameter:    "EFI_INVALID_PARAMETER",
	Unsupported:         "EFI_UNSUPPORTED",
	BadBufferSize:       "EFI_BAD_BUFFER_SIZE",
	BufferTooSmall:      "EFI_BUFFER_TOO_SMALL",
	NotReady:            "EFI_NOT_READY",
	DeviceError:         "EFI_DEVICE_ERROR",
	WriteProtected:      "EFI_WRITE_PROTECTED",
	OutOfResources:      "EFI_OUT_OF_RESOURCES",
	VolumeCorrupted:     "EFI_VOLUME_CORRUPTED",
	VolumeFull:          "EFI_VOLUME_FULL",
	NoMedia:             "EFI_NO_MEDIA",
	MediaChanged:        "EFI_MEDIA_CHANGED",
	NotFound:            "EFI_NOT_FOUND",
	AccessDenied:        "EFI_ACCESS_DENIED",
	NoResponse:          "EFI_NO_RESPONSE",
	NoMapping:           "EFI_NO_MAPPING",
	Timeout:             "EFI_TIMEOUT",
	NotStarted:          "EFI_NOT_STARTED",
	AlreadyStarted:      "EFI_ALREADY_STARTED",
	Aborted:             "EFI_ABORTED",
	IcmpError:           "EFI_ICMP_ERROR",
	TftpError:           "EFI_TFTP_ERROR",
	ProtocolError:       "EFI_PROTOCOL_ERROR",
	IncompatibleVersion: "EFI_INCOMPATIBLE_VERSION",
	SecurityViolation:   "EFI_SECURITY_VIOLATION",
	CrcError:            "EFI_CRC_ERROR",
	EndOfMedia:          "EFI_END_OF_MEDIA",
	EndOfFile:           "EFI_END_OF_FILE",
	InvalidLanguage:     "EFI_INVALID_LANGUAGE",
	CompromisedData:     "EFI_COMPROMISED_DATA",
	HttpError:           "EFI_HTTP_ERROR",
	WarnUnknownGlyph:    "EFI_WARN_UNKNOWN_GLYPH",
	WarnDeleteFailure:   "EFI_WARN_DELETE_FAILURE",
	WarnWriteFailure:    "EFI_WARN_WRITE_FAILURE",
	WarnBufferTooSmall:  "EFI_WARN_BUFFER_TOO_SMALL",
	WarnStaleData:       "EFI_WARN_STALE_DATA",
	WarnFileSystem:      "EFI_WARN_FILE_SYSTEM",
	WarnResetRequired:   "EFI_WARN_RESET_REQUIRED",
}

func (s Status) IsError() bool { return s&ErrorBit != 0 }

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	if s.IsError() {
		return fmt.Sprintf("EFI_ERROR(0x%x)", uint64(s&^ErrorBit))
	}
	return fmt.Sprintf("EFI_WARN(0x%x)", uint64(s))
}

func (s Status) Error() string { return s.String() }

// Err converts a raw status into an error. Success and warnings give nil.
func (s Status) Err() error {
	if !s.IsError() {
		return nil
	}
	return s
}

// StatusOf extracts the firmware status from an error chain. An error that
// carries no status reports ok=false.
func StatusOf(err error) (s Status, ok bool) {
	ok = errors.As(err, &s)
	return
}
