//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run through `go run` or installed via `go install` and are not tracked in go.mod
// since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates the gomock doubles in internal/mocks
//   Run: go generate ./internal/mocks
//   Version: v0.6.0 (matches go.uber.org/mock in go.mod)
//   Docs: https://github.com/uber-go/mock
//
// Air - Live reload for Go apps; pair with DEV=true so templates load from web/templates
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
