package merge

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/rs/zerolog"
)

var testCatalog = []catalog.Entry{
	{Code: "A1", Brand: "Hankook", Model: "Ventus S1 evo3", Pattern: "Ventus S1", Size: "245/45R18", FactoryPrice: 200000, DotList: []string{"#1-1: 2423"}},
	{Code: "A2", Brand: "Kumho", Model: "Ecsta PS71", Size: "245/45R18", FactoryPrice: 180000},
	{Code: "A3", Brand: "Nexen", Model: "N'Fera SU1", Size: "245/45ZR18", FactoryPrice: 150000},
	{Code: "A4", Brand: "Michelin", Model: "Pilot Sport 5", Size: "245/45R18", FactoryPrice: 0},
	{Code: "A5", Brand: "Hankook", Model: "Kinergy 단종", Size: "245/45R18", FactoryPrice: 100000},
	{Code: "B1", Brand: "Hankook", Model: "Ventus S1 evo3", Size: "225/45R17", FactoryPrice: 170000},
	{Code: "B2", Brand: "Kumho", Model: "Majesty 9", Size: "225/45R17", FactoryPrice: 160000},
	{Code: " A6 ", Brand: "Goodyear", Model: "Eagle F1 Discontinued", Size: "245/45R18", FactoryPrice: 90000},
}

var testStock = []inventory.Entry{
	{PartNo: "A1", Size: "245/45R18 100Y XL", TotalStock: 4, SupplyPrice: 150000},
	{PartNo: "A1", Size: "dup", TotalStock: 99},
	{PartNo: "X9", ItID: "A2", TotalStock: 12, SupplyPrice: 140000},
	{PartNo: "X8", StID: "A3", TotalStock: 12},
	{PartNo: "X7", ItID: "A3", TotalStock: 1},
	{PartNo: "A6", TotalStock: 50},
}

type fixture struct {
	catCalls atomic.Int32
	invCalls atomic.Int32
	catErr   error
	invErr   error
	invBlock bool
	table    *discount.Table
}

func (f *fixture) engine(timeout time.Duration) *Engine {
	cat := catalog.SourceFunc(func(ctx context.Context) ([]catalog.Entry, error) {
		f.catCalls.Add(1)
		return testCatalog, f.catErr
	})
	inv := inventory.SourceFunc(func(ctx context.Context, q string) ([]inventory.Entry, error) {
		f.invCalls.Add(1)
		if f.invBlock {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return testStock, f.invErr
	})
	if f.table == nil {
		f.table = discount.NewTable()
	}
	r := discount.NewResolver(f.table, nil, discount.Options{})
	return New(cat, inv, r, zerolog.Nop(), Options{Timeout: timeout})
}

func codes(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Code
	}
	return out
}

func TestSearchMergesAndSorts(t *testing.T) {
	f := &fixture{}
	got, err := f.engine(time.Second).Search(context.Background(), "245/45R18", Customer{Grade: discount.Grade3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// A4 has no price, A5 and A6 are discontinued, B1 and B2 are another size.
	// A2 and A3 tie on stock and keep catalog order.
	want := []string{"A2", "A3", "A1"}
	if g := codes(got); len(g) != len(want) || g[0] != want[0] || g[1] != want[1] || g[2] != want[2] {
		t.Fatalf("codes=%v want=%v", g, want)
	}

	a1 := got[2]
	if a1.Size != "245/45R18 100Y XL" || a1.TotalStock != 4 || a1.SupplyPrice != 150000 || !a1.Matched {
		t.Fatalf("a1 should take the first stock row: %+v", a1)
	}
	if len(a1.DotList) != 1 {
		t.Fatalf("dot list lost: %v", a1.DotList)
	}
	// A3 takes X8 (stId) because it comes before X7 (itId) in the feed
	if got[1].TotalStock != 12 {
		t.Fatalf("a3 should match the earliest row, stock=%d", got[1].TotalStock)
	}
	if f.catCalls.Load() != 1 || f.invCalls.Load() != 1 {
		t.Fatalf("calls cat=%d inv=%d", f.catCalls.Load(), f.invCalls.Load())
	}
}

func TestSearchUnmatchedHasZeroStock(t *testing.T) {
	f := &fixture{}
	got, _ := f.engine(time.Second).Search(context.Background(), "2254517", Customer{})
	// equal stock keeps catalog order
	if g := codes(got); len(g) != 2 || g[0] != "B1" || g[1] != "B2" {
		t.Fatalf("got=%v", g)
	}
	if got[0].Matched || got[0].TotalStock != 0 || got[0].Size != "225/45R17" {
		t.Fatalf("b1=%+v", got[0])
	}
	if got[0].FinalPrice != 170000 {
		t.Fatalf("final=%d", got[0].FinalPrice)
	}
}

func TestSearchDiscountModes(t *testing.T) {
	tbl := discount.NewTable()
	tbl.Load([]discount.Record{
		{Key: discount.PatternKey("Hankook", "Ventus S1"), Rates: discount.Rates{discount.Grade4: 10}},
		{Key: discount.PatternKey("Kumho", "Ecsta PS71"), Rates: discount.Rates{discount.Grade4: 33}},
	})
	f := &fixture{table: tbl}
	e := f.engine(time.Second)

	got, _ := e.Search(context.Background(), "2454518", Customer{Grade: discount.Grade4, Mode: ModeStore})
	byCode := map[string]Product{}
	for _, p := range got {
		byCode[p.Code] = p
	}
	if p := byCode["A1"]; p.OfficialDiscount != 10 || p.DiscountRate != 10 || p.FinalPrice != 180000 || p.DiscountSource != discount.LayerPattern {
		t.Fatalf("a1=%+v", p)
	}
	// blank pattern derived from the model name
	if p := byCode["A2"]; p.DiscountRate != 33 || p.FinalPrice != 120600 || p.Pattern != "Ecsta PS71" {
		t.Fatalf("a2=%+v", p)
	}

	// "Ventus S1 evo3" derives "Ventus S1", so B1 shares A1's pattern rate
	small, _ := e.Search(context.Background(), "2254517", Customer{Grade: discount.Grade4, Mode: ModeStore})
	if len(small) != 2 || small[0].Code != "B1" || small[0].Pattern != "Ventus S1" || small[0].DiscountRate != 10 || small[0].FinalPrice != 153000 {
		t.Fatalf("b1=%+v", small)
	}

	manual := Customer{Grade: discount.Grade4, Mode: ModeManual, Manual: map[string]float64{"A1": 50}}
	Reprice(got, manual)
	for _, p := range got {
		switch p.Code {
		case "A1":
			if p.DiscountRate != 50 || p.FinalPrice != 100000 || p.OfficialDiscount != 10 {
				t.Fatalf("manual a1=%+v", p)
			}
		default:
			if p.DiscountRate != 0 || p.FinalPrice != p.FactoryPrice {
				t.Fatalf("manual default should be 0: %+v", p)
			}
		}
	}
}

func TestSearchFirstMatchingRowWins(t *testing.T) {
	rows := []inventory.Entry{
		{PartNo: "P1", ItID: "A1", TotalStock: 7},
		{PartNo: "A1", TotalStock: 2},
		{StID: "A2", PartNo: "P2", TotalStock: 5},
		{ItID: "A2", PartNo: "P3", TotalStock: 9},
	}
	ix := buildIndex(zerolog.Nop(), rows)
	if got, ok := ix.lookup(" A1 "); !ok || got.TotalStock != 7 {
		t.Fatalf("A1: ok=%v stock=%d", ok, got.TotalStock)
	}
	if got, ok := ix.lookup("A2"); !ok || got.TotalStock != 5 {
		t.Fatalf("A2: ok=%v stock=%d", ok, got.TotalStock)
	}
	if _, ok := ix.lookup("ZZ"); ok {
		t.Fatalf("unknown code matched")
	}
}

func TestSearchDigitFreeQueryMatchesAll(t *testing.T) {
	f := &fixture{}
	got, err := f.engine(time.Second).Search(context.Background(), "Hankook", Customer{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	// every listable, not discontinued entry: A1 A2 A3 B1 B2
	if len(got) != 5 {
		t.Fatalf("codes=%v", codes(got))
	}
	if f.invCalls.Load() != 1 {
		t.Fatalf("inventory calls=%d", f.invCalls.Load())
	}
}

func TestSearchEmptyQuerySkipsSources(t *testing.T) {
	f := &fixture{}
	e := f.engine(time.Second)
	for _, q := range []string{"", "   ", "\t\n"} {
		got, err := e.Search(context.Background(), q, Customer{})
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("q=%q got=%v err=%v", q, got, err)
		}
	}
	if f.catCalls.Load() != 0 || f.invCalls.Load() != 0 {
		t.Fatalf("sources called for empty query")
	}
}

func TestSearchSourceFailureIsEmpty(t *testing.T) {
	for name, f := range map[string]*fixture{
		"catalog":   {catErr: errors.New("sheet down")},
		"inventory": {invErr: errors.New("login page")},
	} {
		got, err := f.engine(time.Second).Search(context.Background(), "2454518", Customer{})
		if err != nil || got == nil || len(got) != 0 {
			t.Fatalf("%s: got=%v err=%v", name, got, err)
		}
	}
}

func TestSearchTimeoutIsEmpty(t *testing.T) {
	f := &fixture{invBlock: true}
	start := time.Now()
	got, err := f.engine(30*time.Millisecond).Search(context.Background(), "2454518", Customer{})
	if err != nil || len(got) != 0 {
		t.Fatalf("got=%v err=%v", got, err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestSearchCallerCancel(t *testing.T) {
	f := &fixture{invBlock: true}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.engine(time.Second).Search(ctx, "2454518", Customer{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestFilterBrand(t *testing.T) {
	ps := []Product{{Brand: "Hankook"}, {Brand: "Laufenn"}, {Brand: "금호타이어"}, {Brand: "Michelin"}}
	if got := FilterBrand(ps, "All"); len(got) != 4 {
		t.Fatalf("all=%d", len(got))
	}
	if got := FilterBrand(ps, "hankook"); len(got) != 2 {
		t.Fatalf("hankook=%v", got)
	}
	if got := FilterBrand(ps, "Kumho"); len(got) != 1 {
		t.Fatalf("kumho=%v", got)
	}
	if got := FilterBrand(ps, "miche"); len(got) != 1 {
		t.Fatalf("michelin=%v", got)
	}
}

func TestParseMode(t *testing.T) {
	if ParseMode("Manual") != ModeManual || ParseMode("") != ModeStore || ParseMode("x") != ModeStore {
		t.Fatalf("ParseMode mismatch")
	}
}
