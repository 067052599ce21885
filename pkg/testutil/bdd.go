package testutil

import "testing"

// Given, When, and Then run a phase of a scenario test as a named subtest.
// Phases share state through the enclosing test's variables and run in
// order; a failing phase stops the scenario.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	phase(t, "Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	phase(t, "When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	phase(t, "Then "+desc, fn)
}

func phase(t *testing.T, name string, fn func(t *testing.T)) {
	t.Helper()
	if !t.Run(name, fn) {
		t.FailNow()
	}
}
