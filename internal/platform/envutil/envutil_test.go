package envutil

import "testing"

func TestStr(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_STR", "  value  ")
	if got := Str("ENVUTIL_TEST_STR", "def"); got != "value" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := Str("ENVUTIL_TEST_STR_UNSET", "def"); got != "def" {
		t.Fatalf("unexpected default: %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_TEST_INT", "42")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 42 {
		t.Fatalf("unexpected value: %d", got)
	}
	t.Setenv("ENVUTIL_TEST_INT", "nope")
	if got := Int("ENVUTIL_TEST_INT", 7); got != 7 {
		t.Fatalf("unparseable value should fall back: %d", got)
	}
	if got := Int("ENVUTIL_TEST_INT_UNSET", 7); got != 7 {
		t.Fatalf("unexpected default: %d", got)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"on", false, true},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_TEST_BOOL", tc.val)
		if got := Bool("ENVUTIL_TEST_BOOL", tc.def); got != tc.want {
			t.Fatalf("Bool(%q, %v): got=%v want=%v", tc.val, tc.def, got, tc.want)
		}
	}
	if got := Bool("ENVUTIL_TEST_BOOL_UNSET", true); got != true {
		t.Fatalf("unexpected default: %v", got)
	}
}
