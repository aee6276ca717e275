package harness

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/apitest/dispatch"
)

// Object decodes resp as a JSON object and fails the test otherwise.
func Object(t testing.TB, resp *dispatch.Response) map[string]any {
	t.Helper()
	v, err := resp.JSON()
	require.NoError(t, err)
	obj, ok := v.(map[string]any)
	require.True(t, ok, "expected a JSON object, got %T: %s", v, resp.Text())
	return obj
}

// Array decodes resp as a JSON array and fails the test otherwise.
func Array(t testing.TB, resp *dispatch.Response) []any {
	t.Helper()
	v, err := resp.JSON()
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok, "expected a JSON array, got %T: %s", v, resp.Text())
	return arr
}

// Message returns the "message" or "Message" field, whichever is present.
func Message(obj map[string]any) (string, bool) {
	for _, key := range []string{"message", "Message"} {
		if msg, ok := obj[key].(string); ok {
			return msg, true
		}
	}
	return "", false
}

// Int returns v as an int when it is an integral JSON number.
func Int(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// RequireInt is Int that fails the test for non-integers.
func RequireInt(t testing.TB, v any, field string) int {
	t.Helper()
	i, ok := Int(v)
	require.True(t, ok, "%s should be an integer, got %T %v", field, v, v)
	return i
}

// Strings converts a JSON array of strings.
func Strings(t testing.TB, v any, field string) []string {
	t.Helper()
	arr, ok := v.([]any)
	require.True(t, ok, "%s should be a list, got %T", field, v)
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		require.True(t, ok, "%s[%d] should be a string, got %T", field, i, item)
		out = append(out, s)
	}
	return out
}
