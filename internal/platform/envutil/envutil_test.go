package envutil

import (
	"reflect"
	"testing"
	"time"
)

func TestEnvParsers(t *testing.T) {
	t.Setenv("CH_TEST_INT", "42")
	t.Setenv("CH_TEST_BAD_INT", "forty")
	t.Setenv("CH_TEST_BOOL", "yes")
	t.Setenv("CH_TEST_DUR", "90s")
	t.Setenv("CH_TEST_DUR_SECS", "30")
	t.Setenv("CH_TEST_LIST", " teacher, ,admin ")
	t.Setenv("CH_TEST_FLOAT", "0.25")

	if got := Int("CH_TEST_INT", 1, nil); got != 42 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("CH_TEST_BAD_INT", 7, nil); got != 7 {
		t.Fatalf("Int invalid: got %d", got)
	}
	if got := Int("CH_TEST_MISSING", 3, nil); got != 3 {
		t.Fatalf("Int missing: got %d", got)
	}
	if got := Float("CH_TEST_FLOAT", 1, nil); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if !Bool("CH_TEST_BOOL", false, nil) {
		t.Fatalf("Bool: expected true")
	}
	if got := Duration("CH_TEST_DUR", time.Second, nil); got != 90*time.Second {
		t.Fatalf("Duration: got %v", got)
	}
	if got := Duration("CH_TEST_DUR_SECS", time.Second, nil); got != 30*time.Second {
		t.Fatalf("Duration seconds: got %v", got)
	}
	if got := List("CH_TEST_LIST", nil, nil); !reflect.DeepEqual(got, []string{"teacher", "admin"}) {
		t.Fatalf("List: got %#v", got)
	}
	if got := String("CH_TEST_MISSING", "dflt", nil); got != "dflt" {
		t.Fatalf("String missing: got %q", got)
	}
}
