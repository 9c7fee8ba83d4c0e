package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"087 123 4567", "+353871234567"},
		{"+353 87 123 4567", "+353871234567"},
		{"  ", ""},
		{"not a number", "not a number"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("087 123 4567") {
		t.Fatal("expected Irish mobile to be valid")
	}
	if IsValid("12345") {
		t.Fatal("expected short number to be invalid")
	}
	if IsValid("") {
		t.Fatal("expected empty number to be invalid")
	}
}

func TestMask(t *testing.T) {
	if got := Mask("087 123 4567"); got != "**********567" {
		t.Fatalf("unexpected mask %q", got)
	}
}
