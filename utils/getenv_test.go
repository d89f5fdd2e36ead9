package utils

import "testing"

func TestGetEnvDefault(t *testing.T) {
	t.Setenv("ROCKFALL_TEST_STR", "hello")

	if got := GetEnvDefault("ROCKFALL_TEST_STR", "fallback"); got != "hello" {
		t.Errorf("got = %q, want %q", got, "hello")
	}
	if got := GetEnvDefault("ROCKFALL_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got = %q, want %q", got, "fallback")
	}
}

func TestGetEnvIntDefault(t *testing.T) {
	t.Setenv("ROCKFALL_TEST_INT", "42")
	t.Setenv("ROCKFALL_TEST_BAD", "not a number")

	if got := GetEnvIntDefault("ROCKFALL_TEST_INT", 7); got != 42 {
		t.Errorf("got = %d, want 42", got)
	}
	if got := GetEnvIntDefault("ROCKFALL_TEST_BAD", 7); got != 7 {
		t.Errorf("got = %d, want 7", got)
	}
	if got := GetEnvIntDefault("ROCKFALL_TEST_UNSET", 7); got != 7 {
		t.Errorf("got = %d, want 7", got)
	}
}
