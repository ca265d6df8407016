//go:build mage

// Package main provides build targets for tabledesk using Mage.
//
// Usage:
//
//	mage build           Compile the desk binary to bin/
//	mage install         Install desk to GOPATH/bin
//	mage test:all        Run every test with the race detector
//	mage test:unit       Run tests that need no external service
//	mage test:postgres   Run the store tests against TABLEDESK_TEST_POSTGRES_URL
//	mage test:cover      Write coverage.out and print the per-function summary
//	mage lint            Run go vet and golangci-lint
//	mage clean           Remove build artifacts
//	mage stats           Print Go line counts per package as JSON
package main
