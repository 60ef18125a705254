// VisualSearch CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/visualsearch/internal/dagger"
)

// VisualSearch is the main module for the visualsearch CI/CD pipeline
type VisualSearch struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new VisualSearch CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", ".visualsearch", "build", "tmp"]
	source *dagger.Directory,
) *VisualSearch {
	return &VisualSearch{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// Both go-sqlite3 and go-libsql need cgo, so tests and linting run here.
func (v *VisualSearch) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", v.Source)
}

// Test runs the visualsearch unit tests via "go test"
func (v *VisualSearch) Test(ctx context.Context) (string, error) {
	return v.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestRace runs the unit tests with the race detector enabled
func (v *VisualSearch) TestRace(ctx context.Context) (string, error) {
	return v.goContainer().
		WithExec([]string{"go", "test", "-race", "./pkg/...", "./api/..."}).
		Stdout(ctx)
}
