// internal/integrations/registry.go
package integrations

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/rs/zerolog"
)

// CatalogFactory builds a catalog source from its raw JSON config block.
type CatalogFactory func(log zerolog.Logger, raw json.RawMessage) (catalog.Source, error)

// InventoryFactory builds an inventory source from its raw JSON config block.
type InventoryFactory func(log zerolog.Logger, raw json.RawMessage) (inventory.Source, error)

var (
	regMu       sync.RWMutex
	catalogs    = map[string]CatalogFactory{}
	inventories = map[string]InventoryFactory{}
)

func RegisterCatalog(name string, f CatalogFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	catalogs[name] = f
}

func RegisterInventory(name string, f InventoryFactory) {
	regMu.Lock()
	defer regMu.Unlock()
	inventories[name] = f
}

func Catalog(name string) (CatalogFactory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := catalogs[name]
	return f, ok
}

func Inventory(name string) (InventoryFactory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := inventories[name]
	return f, ok
}

// Names lists registered adapters per kind, sorted.
func Names() (catalogNames, inventoryNames []string) {
	regMu.RLock()
	defer regMu.RUnlock()
	for k := range catalogs {
		catalogNames = append(catalogNames, k)
	}
	for k := range inventories {
		inventoryNames = append(inventoryNames, k)
	}
	sort.Strings(catalogNames)
	sort.Strings(inventoryNames)
	return catalogNames, inventoryNames
}

// BuildCatalog looks up name and builds the source with a component sub-logger.
func BuildCatalog(log zerolog.Logger, name string, raw json.RawMessage) (catalog.Source, error) {
	f, ok := Catalog(name)
	if !ok {
		return nil, fmt.Errorf("unknown catalog adapter %q", name)
	}
	src, err := f(log.With().Str("integration", name).Logger(), raw)
	if err != nil {
		return nil, fmt.Errorf("catalog adapter %s: %w", name, err)
	}
	return src, nil
}

// BuildInventory looks up name and builds the source with a component sub-logger.
func BuildInventory(log zerolog.Logger, name string, raw json.RawMessage) (inventory.Source, error) {
	f, ok := Inventory(name)
	if !ok {
		return nil, fmt.Errorf("unknown inventory adapter %q", name)
	}
	src, err := f(log.With().Str("integration", name).Logger(), raw)
	if err != nil {
		return nil, fmt.Errorf("inventory adapter %s: %w", name, err)
	}
	return src, nil
}
