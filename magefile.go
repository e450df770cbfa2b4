//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/wrouesnel/signcfg/version"
)

var Default = Build

// Build compiles the signcfg binary into bin/.
func Build() error {
	mg.Deps(Fmt)
	ldflags := fmt.Sprintf("-X github.com/wrouesnel/signcfg/version.Version=%s", version.Version)
	return sh.RunV("go", "build", "-ldflags", ldflags, "-o", "bin/"+version.Name, "./cmd/"+version.Name)
}

// Test runs the unit tests with coverage.
func Test() error {
	return sh.RunV("go", "test", "-cover", "./...")
}

// Fmt formats the source tree.
func Fmt() error {
	return sh.RunV("gofmt", "-l", "-w", "cmd", "pkg", "version")
}
