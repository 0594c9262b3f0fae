// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Vets the module and installs the drawbench command.
func (Build) Drawbench() error {
	if _, err := executeCmd("go", withArgs("vet", "./...")); err != nil {
		return err
	}
	_, err := executeCmd("go", withArgs("install", "./cmd/drawbench"), withStream())
	return err
}

// Replays the sample scenario with the installed drawbench.
func (Build) Demo() error {
	mg.Deps(Build.Drawbench)
	_, err := executeCmd("drawbench", withArgs("cmd/drawbench/testdata/sprites.toml"), withStream())
	return err
}
