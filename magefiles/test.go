// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the release test suite with the race detector.
func (Test) Unit() error {
	_, err := executeCmd("go", withArgs("test", "-race", "./..."), withStream())
	return err
}

// Runs the test suite with debug validation compiled in.
func (Test) Debug() error {
	_, err := executeCmd("go", withArgs("test", "-tags", "drawstate_debug", "./..."), withStream())
	return err
}

// Runs both the release and the debug test suites.
func (Test) All() {
	mg.SerialDeps(Test.Unit, Test.Debug)
}

// Runs the merger and cache benchmarks.
func (Test) Bench() error {
	_, err := executeCmd("go", withArgs("test", "-run", "^$", "-bench", ".", "-benchmem", ".", "./internal/cache"), withStream())
	return err
}
