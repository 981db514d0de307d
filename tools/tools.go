//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are installed via `go install` and are not tracked in go.mod.
package tools

// Development tools (install via `go install`):
//
// mockgen - generates the repository mocks under internal/mocks
//   Install: go install go.uber.org/mock/mockgen@v0.6.0
//   Run:     go generate ./internal/mocks/...
//
// golangci-lint - lint suite, including forbidigo for the os.Exit calls in cmd/
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@latest
//
// Air - live reload for cmd/harvester during local development
//   Install: go install github.com/air-verse/air@v1.63.0
