package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "abc")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", " 42 ")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"true": true, "YES": true, "0": false, "off": false}
	for raw, want := range cases {
		t.Setenv("ENVUTIL_TEST_BOOL", raw)
		if got := Bool("ENVUTIL_TEST_BOOL", !want); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
	t.Setenv("ENVUTIL_TEST_BOOL", "maybe")
	if got := Bool("ENVUTIL_TEST_BOOL", true); !got {
		t.Fatalf("Bool(maybe): expected default")
	}
}

func TestCSVAndSeconds(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_CSV", "a, b,,c ")
	got := CSV("ENVUTIL_TEST_CSV", nil)
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("CSV: unexpected %v", got)
	}
	t.Setenv("ENVUTIL_TEST_SECS", "90")
	if d := Seconds("ENVUTIL_TEST_SECS", time.Second); d != 90*time.Second {
		t.Fatalf("Seconds: got %v", d)
	}
}
