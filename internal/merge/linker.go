package merge

import (
	"strings"

	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/rs/zerolog"
)

const maxDbgLines = 10

// index resolves a catalog code to a stock row: the first row whose part
// number, item id or st id equals the code. Within a row the fields are
// checked in that order.
type index struct {
	byPartNo map[string]int
	byItID   map[string]int
	byStID   map[string]int
	rows     []inventory.Entry
}

func buildIndex(log zerolog.Logger, rows []inventory.Entry) *index {
	ix := &index{
		byPartNo: make(map[string]int, len(rows)),
		byItID:   make(map[string]int, len(rows)),
		byStID:   make(map[string]int, len(rows)),
		rows:     rows,
	}
	dups, dbgDup := 0, 0
	add := func(m map[string]int, id string, i int, field string) {
		id = strings.TrimSpace(id)
		if id == "" {
			return
		}
		if first, ok := m[id]; ok {
			dups++
			if dbgDup < maxDbgLines {
				log.Debug().
					Str(field, id).
					Int("kept_row", first).
					Int("skipped_row", i).
					Msg("linker: duplicate identifier in stock feed, first row kept")
				dbgDup++
			}
			return
		}
		m[id] = i
	}
	for i, r := range rows {
		add(ix.byPartNo, r.PartNo, i, "part_no")
		add(ix.byItID, r.ItID, i, "it_id")
		add(ix.byStID, r.StID, i, "st_id")
	}

	log.Debug().
		Int("stock_rows", len(rows)).
		Int("part_no_keys", len(ix.byPartNo)).
		Int("it_id_keys", len(ix.byItID)).
		Int("st_id_keys", len(ix.byStID)).
		Int("duplicates", dups).
		Msg("linker: index built")
	return ix
}

func (ix *index) lookup(code string) (inventory.Entry, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return inventory.Entry{}, false
	}
	best := -1
	for _, m := range []map[string]int{ix.byPartNo, ix.byItID, ix.byStID} {
		if i, ok := m[code]; ok && (best < 0 || i < best) {
			best = i
		}
	}
	if best < 0 {
		return inventory.Entry{}, false
	}
	return ix.rows[best], true
}
