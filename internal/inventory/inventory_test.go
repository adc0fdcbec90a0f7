package inventory

import "testing"

func TestClean(t *testing.T) {
	e, ok := Clean(Entry{PartNo: "  A1 ", ItID: "\t99", Brand: " Hankook ", TotalStock: -3, SupplyPrice: -1})
	if !ok {
		t.Fatalf("row with part number should be valid")
	}
	if e.PartNo != "A1" || e.ItID != "99" || e.Brand != "Hankook" {
		t.Fatalf("fields not trimmed: %+v", e)
	}
	if e.TotalStock != 0 || e.SupplyPrice != 0 {
		t.Fatalf("negatives not clamped: %+v", e)
	}

	if _, ok := Clean(Entry{StID: "S1", Brand: "X"}); ok {
		t.Fatalf("row with only stId must be rejected")
	}
	if _, ok := Clean(Entry{ItID: " 12 "}); !ok {
		t.Fatalf("row with itId only should be valid")
	}
}

func TestDedupe(t *testing.T) {
	rows := []Entry{
		{Brand: "H", Model: "V", Size: "245/45R18", PartNo: "A1", TotalStock: 4},
		{Brand: "H", Model: "V", Size: "245/45R18", PartNo: "A1", TotalStock: 9},
		{Brand: "H", Model: "V", Size: "245/45R18", PartNo: "A2", TotalStock: 1},
	}
	out := Dedupe(rows)
	if len(out) != 2 {
		t.Fatalf("len=%d want=2", len(out))
	}
	if out[0].TotalStock != 4 {
		t.Fatalf("first occurrence should win, got %+v", out[0])
	}
}
