// internal/integrations/woocommerce/types.go
package woocommerce

type wcAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type wcProduct struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Status       string        `json:"status"`        // "publish","draft","trash"
	RegularPrice string        `json:"regular_price"` // string in Woo
	SalePrice    string        `json:"sale_price"`
	ManageStock  bool          `json:"manage_stock"`
	StockQty     *float64      `json:"stock_quantity"`
	Attributes   []wcAttribute `json:"attributes"`
}

func (p wcProduct) attr(names ...string) string {
	for _, a := range p.Attributes {
		for _, n := range names {
			if a.Name == n && len(a.Options) > 0 {
				return a.Options[0]
			}
		}
	}
	return ""
}
