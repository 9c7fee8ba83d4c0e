package validator

import "testing"

func TestIsEircode(t *testing.T) {
	cases := map[string]bool{
		"D02 X285": true,
		"d02x285":  true,
		"D6W XY12": true,
		"A65 F4E2": true,
		"T12 AC3D": true,
		"":         false,
		"B12 3456": false,
		"D02 X28":  false,
		"12345678": false,
	}
	for input, want := range cases {
		if got := IsEircode(input); got != want {
			t.Fatalf("IsEircode(%q) = %v, want %v", input, got, want)
		}
	}
}

type address struct {
	Eircode string `validate:"omitempty,eircode"`
	County  string `validate:"required"`
}

func TestStructUsesEircodeTag(t *testing.T) {
	val := New()

	if err := val.Struct(address{Eircode: "D02 X285", County: "Dublin"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := val.Struct(address{Eircode: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fields := FieldErrors(err)
	if fields["Eircode"] != "eircode" || fields["County"] != "required" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
}
