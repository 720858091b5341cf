//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "phonevalidator"

// Default target to run when none is specified
var Default = Build

// Build compiles the phonevalidator binary (cgo is required by go-sqlite3)
func Build() error {
	env := map[string]string{"CGO_ENABLED": "1"}
	return sh.RunWithV(env, "go", "build", "-o", binary, "./cmd/phonevalidator")
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and installs the binary into $GOPATH/bin
func Install() error {
	mg.Deps(Test)
	return sh.RunV("go", "install", "./cmd/phonevalidator")
}

// Clean removes build output, downloaded recordings and the transcript cache
func Clean() error {
	for _, path := range []string{binary, "recordings", ".transcript_cache"} {
		fmt.Printf("Removing %s\n", path)
		if err := os.RemoveAll(filepath.Clean(path)); err != nil {
			return err
		}
	}
	return nil
}
