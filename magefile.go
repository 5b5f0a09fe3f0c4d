//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "bin/server"
	mainPkg = "./cmd/server"
)

// Wire injector packages.
var wirePackages = []string{
	"./internal/app",
	"./internal/module/ai",
}

// Default target when running mage without arguments.
var Default = Build

// Build builds the server binary.
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, mainPkg)
}

// Generate runs wire and swag.
func Generate() {
	mg.SerialDeps(Wire, Swagger)
}

// Wire regenerates the dependency injectors.
func Wire() error {
	for _, pkg := range wirePackages {
		fmt.Println("wire", pkg)
		if err := sh.Run("wire", "gen", pkg); err != nil {
			return fmt.Errorf("wire %s: %w", pkg, err)
		}
	}
	return nil
}

// Swagger regenerates cmd/server/docs from the handler annotations.
func Swagger() error {
	fmt.Println("swag init")
	return sh.Run("swag", "init",
		"--generalInfo", "docs.go",
		"--dir", "./cmd/server,./internal/module",
		"--output", "./cmd/server/docs",
		"--outputTypes", "go",
		"--parseInternal",
	)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestCover writes coverage.out.
func TestCover() error {
	return sh.RunV("go", "test", "-covermode=atomic", "-coverprofile=coverage.out", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Tidy runs go mod tidy.
func Tidy() error {
	return sh.Run("go", "mod", "tidy")
}

// Clean removes build and coverage artifacts.
func Clean() error {
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := os.Remove("coverage.out"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Migrate applies database migrations with the built binary.
func Migrate() error {
	mg.Deps(Build)
	return sh.RunV(binary, "migrate")
}

// Run builds and starts the server.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(binary, "serve")
}

// CI runs vet and the tests with coverage.
func CI() {
	mg.SerialDeps(Vet, TestCover)
}

// Install installs the code generators and linter.
func Install() error {
	tools := []string{
		"github.com/google/wire/cmd/wire@v0.7.0",
		"github.com/swaggo/swag/cmd/swag@v1.16.6",
		"github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
	}
	for _, tool := range tools {
		fmt.Println("go install", tool)
		if err := sh.Run("go", "install", tool); err != nil {
			return fmt.Errorf("install %s: %w", tool, err)
		}
	}
	return nil
}
