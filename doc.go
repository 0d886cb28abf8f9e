// Copyright (C) 2024 the Brisbane Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Brisbane is a second-stage boot loader. Started by UEFI firmware from the
// boot medium, it loads \brisbane\boot\kernel from that same medium and
// starts it. It does nothing else: no menu, no configuration, no fallback.
//
// The boot chain in pkg/boot is written against the firmware interfaces in
// pkg/efi and can be driven by:
//
//    - pkg/efi/fake: an in-memory firmware, used by the tests.
//
//    - pkg/hostfw: a running linux kernel standing in for the firmware, in
//      the LinuxBoot manner. The boot entry comes from efivars, the medium is
//      found with blkid and mounted read-only, and the kernel is started with
//      kexec. This is what cmd/brisbane-boot uses.
//
// cmd/util/currentBoot prints what the firmware says the machine booted from,
// and how that resolves on this host.
//
// Use `mage` to build the loader and the boot medium layout.
//
package brisbane
