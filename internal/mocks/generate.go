// Package mocks provides mock implementations for testing the secretshare auth services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our port interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	reg := mocks.NewMockIdentityRegistry(ctrl)
//	reg.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(nil, nil)
package mocks

// Generate mock for IdentityRegistry interface from internal/ports package.
// This creates MockIdentityRegistry with methods for all IdentityRegistry interface methods:
// FindByEmail, Create, SetSecret
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_registry_mock.go github.com/target/secretshare/internal/ports IdentityRegistry

// Generate mock for PasswordHasher interface from internal/ports package.
// This creates MockPasswordHasher with methods: Hash, Verify
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_hasher_mock.go github.com/target/secretshare/internal/ports PasswordHasher
