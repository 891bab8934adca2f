//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Convert builds the CLI and converts the text in $TEXT.
func Convert() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "convert", os.Getenv("TEXT"))
}

// Serve builds the CLI and starts the chat server on :8501.
func Serve() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath, "serve")
}
