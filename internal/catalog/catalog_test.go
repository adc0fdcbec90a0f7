package catalog

import "testing"

func TestDerivePattern(t *testing.T) {
	cases := map[string]string{
		"Ventus S1 evo3 K127 245/45R18 100Y": "Ventus S1",
		"245/45R18 98W Pilot Sport 4S":       "Pilot Sport",
		"245/45ZR18":                         "Unknown",
		"":                                   "Unknown",
		"Primacy":                            "Primacy",
		"R18 (98W) Kinergy GT":               "Kinergy GT",
		"LT265/70R17 121/118S Dynapro AT2":   "Dynapro AT2",
	}
	for in, want := range cases {
		if got := DerivePattern(in); got != want {
			t.Fatalf("DerivePattern(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestPatternOf_PrefersExplicit(t *testing.T) {
	if got := PatternOf(Entry{Pattern: " Ventus ", Model: "Kinergy GT"}); got != "Ventus" {
		t.Fatalf("got %q", got)
	}
	if got := PatternOf(Entry{Model: "Kinergy GT 205/55R16"}); got != "Kinergy GT" {
		t.Fatalf("got %q", got)
	}
}

func TestListable(t *testing.T) {
	if (Entry{FactoryPrice: 0}).Listable() {
		t.Fatalf("zero price must not be listable")
	}
	if !(Entry{FactoryPrice: 1}).Listable() {
		t.Fatalf("positive price must be listable")
	}
}
