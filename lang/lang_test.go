package lang

import "testing"

func TestPairSwapIsInvolution(t *testing.T) {
	pairs := []Pair{
		{Source: "en", Target: "hi"},
		{Source: "fr", Target: "fr"},
		{Source: "", Target: "de"},
	}
	for _, p := range pairs {
		if got := p.Swap().Swap(); got != p {
			t.Errorf("Swap().Swap() = %+v, want %+v", got, p)
		}
		if swapped := p.Swap(); swapped.Source != p.Target || swapped.Target != p.Source {
			t.Errorf("Swap() = %+v, want exchanged %+v", swapped, p)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		code string
		ok   bool
	}{
		{"en", true},
		{"en-US", true},
		{"EN", false},
		{"eng", false},
		{"en-us", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := Validate(tt.code)
			if (err == nil) != tt.ok {
				t.Errorf("Validate(%q) error = %v, want ok=%v", tt.code, err, tt.ok)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	l, ok := Lookup("hi-IN")
	if !ok || l.Code != "hi" {
		t.Fatalf("Lookup(hi-IN) = %+v, %v", l, ok)
	}
	if _, ok := Lookup("xx"); ok {
		t.Fatal("expected unknown language")
	}
	if Name("xx") != "xx" {
		t.Fatalf("Name(xx) = %q", Name("xx"))
	}
	if len(All()) != 17 {
		t.Fatalf("catalog size = %d, want 17", len(All()))
	}
}

func TestCycleWraps(t *testing.T) {
	if got := Cycle("en", -1); got != "ar" {
		t.Errorf("Cycle(en, -1) = %q, want ar", got)
	}
	if got := Cycle("ar", 1); got != "en" {
		t.Errorf("Cycle(ar, 1) = %q, want en", got)
	}
	if got := Cycle("zz", 1); got != "en" {
		t.Errorf("Cycle(zz, 1) = %q, want en", got)
	}
}
