// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !drawstate_debug

package drawstate

const debugValidation = false
