// Package sshrpctest provides a contract test suite for sshrpc targets.
//
// A target passes the suite when it honours the execution contract a session
// offers: expected-return comparison, in-place capture, the timeout sentinel,
// environment and working-directory handling, and typed errors.
package sshrpctest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ruffel/sshrpc"
)

// Standard categories for grouping tests.
const (
	CategoryCore        = "core"
	CategoryCapture     = "capture"
	CategoryTimeout     = "timeout"
	CategoryEnvironment = "environment"
	CategoryErrors      = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Cleanup(f func())
	Name() string
}

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Prereq      func(t T, target sshrpc.Target) (ok bool, reason string)
	Run         func(t T, target sshrpc.Target)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// AllContracts returns all test cases for the contract test suite.
func AllContracts() []TestCase {
	var contracts []TestCase

	contracts = append(contracts, coreContracts()...)
	contracts = append(contracts, captureContracts()...)
	contracts = append(contracts, timeoutContracts()...)
	contracts = append(contracts, environmentContracts()...)
	contracts = append(contracts, errorContracts()...)

	return contracts
}

// Verify is the standard Go test entry point for target authors.
func Verify(t *testing.T, target sshrpc.Target) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			Run(t, tc, target)
		})
	}
}

// Run checks the prerequisite of tc and then runs it.
func Run(t T, tc TestCase, target sshrpc.Target) {
	if tc.Prereq != nil {
		ok, reason := tc.Prereq(t, target)
		if !ok {
			t.Skipf("prereq unmet: %s", reason)
		}
	}

	tc.Run(t, target)
}
