//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	coverFile   = "coverage.out"
	postgresEnv = "TABLEDESK_TEST_POSTGRES_URL"
)

// Test groups test targets (all, unit, postgres, cover).
type Test mg.Namespace

// All runs every test with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-race", "./...")
}

// Unit runs the tests that need no external service. Postgres tests skip
// themselves when postgresEnv is unset.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{postgresEnv: ""}, binGo, "test", "-short", "./...")
}

// Postgres runs the SQL store tests against the database in postgresEnv.
func (Test) Postgres() error {
	if os.Getenv(postgresEnv) == "" {
		return errors.New(postgresEnv + " is not set")
	}
	return sh.RunV(binGo, "test", "-v", "-run", "Postgres", "./internal/sqlstore/...")
}

// Cover writes coverage.out and prints the per-function summary.
func (Test) Cover() error {
	if err := sh.RunV(binGo, "test", "-coverprofile="+coverFile, "./..."); err != nil {
		return err
	}
	return sh.RunV(binGo, "tool", "cover", "-func="+coverFile)
}
