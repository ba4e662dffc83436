// Package mocks provides generated mock implementations of the auth ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks.
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	src := mocks.NewMockClaimsSource(ctrl)
//	src.EXPECT().SessionClaims(gomock.Any()).Return(claims, nil)
package mocks

// Generate mocks for ClaimsSource and TokenVerifier from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/target/webshell/internal/ports ClaimsSource,TokenVerifier
