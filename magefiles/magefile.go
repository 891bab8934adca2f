//go:build mage

// Package main contains Mage build targets for ottoman-converter developer tooling.
package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI and server expect.
var projectDirs = []string{
	"data",
	".secrets",
}

// Init creates the project directory structure.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "ottoman-converter"
	cmdPkg  = "./cmd/ottoman-converter"
)

// binPath is the built CLI.
var binPath = filepath.Join(binDir, binName)

// Build compiles the CLI binary into bin/, stamping the git version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", binPath, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", binPath, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and the tests.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints non-blank line counts for Go sources, tests, and templates,
// and the word count of the Markdown and YAML documentation.
func Stats() error {
	var t tally
	if err := filepath.WalkDir(".", t.visit); err != nil {
		return err
	}

	fmt.Printf("Go (production): %6d lines\n", t.prod)
	fmt.Printf("Go (tests):      %6d lines\n", t.tests)
	fmt.Printf("Templates:       %6d lines\n", t.templates)
	fmt.Printf("Documentation:   %6d words\n", t.docWords)
	return nil
}

// tally accumulates Stats counts during the walk.
type tally struct {
	prod, tests, templates, docWords int
}

func (t *tally) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		return err
	}
	name := d.Name()
	if d.IsDir() {
		if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		return nil
	}

	count := nonBlankLines
	var into *int
	switch ext := filepath.Ext(name); {
	case strings.HasSuffix(name, "_test.go"):
		into = &t.tests
	case ext == ".go":
		into = &t.prod
	case ext == ".html":
		into = &t.templates
	case ext == ".md", ext == ".yaml", ext == ".yml":
		into, count = &t.docWords, func(b []byte) int { return len(bytes.Fields(b)) }
	default:
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	*into += count(data)
	return nil
}

func nonBlankLines(data []byte) int {
	n := 0
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			n++
		}
	}
	return n
}
