// Package testutils holds helpers shared by the schema test suites.
package testutils

import (
	"fmt"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/scheme"
)

// Combinations runs an equivalent unserialized/serialized pair through
// every phase and serialization combination and checks the results. The
// unserialized value must already be in canonical form, since processing
// an unserialized value is expected to return it unchanged.
// It fails the test immediately on any mismatch.
func Combinations(t *testing.T, field scheme.Field, unserialized, serialized any) {
	t.Helper()

	combinations := []struct {
		phase      scheme.Phase
		serialized bool
		in, out    any
	}{
		{scheme.Incoming, false, unserialized, unserialized},
		{scheme.Outgoing, false, unserialized, unserialized},
		{scheme.Incoming, true, serialized, unserialized},
		{scheme.Outgoing, true, unserialized, serialized},
	}
	for _, combination := range combinations {
		processed, err := scheme.Process(field, combination.in, combination.phase, combination.serialized)
		require.NoError(t, err, "%s serialized=%v failed for %s",
			combination.phase, combination.serialized, spew.Sdump(combination.in))
		require.Equal(t, combination.out, processed, "%s serialized=%v",
			combination.phase, combination.serialized)
	}
}

// MustProcess processes value through the field and fails the test on
// error.
func MustProcess(t *testing.T, field scheme.Field, value any, phase scheme.Phase, serialized bool) any {
	t.Helper()

	processed, err := scheme.Process(field, value, phase, serialized)
	require.NoError(t, err, "processing failed for %s", spew.Sdump(value))
	return processed
}

// Tokens flattens a validation error tree into the error tokens reported
// at each location. The value's own failures appear under "", structure
// children under their key paths and sequence positions under their
// bracketed indexes.
func Tokens(t *testing.T, err error) map[string][]string {
	t.Helper()

	node, ok := scheme.AsValidationError(err)
	require.True(t, ok, "expected a validation error, got %v", err)

	tokens := make(map[string][]string)
	collectTokens(node, "", tokens)
	return tokens
}

// ExpectTokens asserts that processing value fails with exactly the
// given tokens at the given locations.
func ExpectTokens(t *testing.T, field scheme.Field, value any, phase scheme.Phase, serialized bool, want map[string][]string) {
	t.Helper()

	_, err := scheme.Process(field, value, phase, serialized)
	require.Error(t, err, "expected processing to fail for %s", spew.Sdump(value))

	got := Tokens(t, err)
	require.Equal(t, want, got, "error tree mismatch:\n%s", spew.Sdump(got))
}

func collectTokens(node *scheme.ValidationError, path string, into map[string][]string) {
	for _, failure := range node.Errors {
		into[path] = append(into[path], failure.Token)
	}
	switch structure := node.Structure.(type) {
	case map[string]error:
		for key, child := range structure {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			if childNode, ok := scheme.AsValidationError(child); ok {
				collectTokens(childNode, childPath, into)
			}
		}
	case []error:
		for i, child := range structure {
			if child == nil {
				continue
			}
			if childNode, ok := scheme.AsValidationError(child); ok {
				collectTokens(childNode, fmt.Sprintf("%s[%d]", path, i), into)
			}
		}
	}
}
