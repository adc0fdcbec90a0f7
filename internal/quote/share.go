package quote

import (
	"strconv"
	"strings"

	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/pricing"
)

const rule = "-----------------------------\n"

// Branding is printed in the header and footer of shared texts.
type Branding struct {
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	BankAccount string `json:"bank_account"`
}

func pct(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func won(v int64) string { return pricing.FormatWon(v) + "원" }

// QuoteText renders the cart as a customer quote. Empty cart, empty text.
func QuoteText(lines []Line, b Branding) string {
	if len(lines) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("[" + b.Company + "] 타이어 견적 안내\n\n")
	for i, l := range lines {
		p := l.Product
		sb.WriteString(strconv.Itoa(i+1) + ". " + p.Brand + " " + p.Model + "\n")
		sb.WriteString("   규격: " + p.Size + "\n")
		sb.WriteString("   단가: " + won(l.UnitPrice()) + " (할인율: " + pct(l.Rate()) + "%)\n")
		sb.WriteString("   수량: " + strconv.Itoa(l.Quantity) + "개\n")
		sb.WriteString("   소계: " + won(l.Subtotal()) + "\n\n")
	}
	sb.WriteString("총 합계금액: " + won(total(lines)) + "\n")
	sb.WriteString(rule)
	sb.WriteString(b.BankAccount)
	return sb.String()
}

// CompareText renders a stock and price comparison of up to MaxCompare products.
func CompareText(products []merge.Product, b Branding) string {
	if len(products) == 0 {
		return ""
	}
	if len(products) > MaxCompare {
		products = products[:MaxCompare]
	}
	var sb strings.Builder
	sb.WriteString("[" + b.Company + "] 타이어 재고/단가 안내\n\n")
	for i, p := range products {
		dot := strings.Join(p.DotList, ", ")
		if dot == "" {
			dot = "-"
		}
		sb.WriteString(strconv.Itoa(i+1) + ". " + p.Brand + " " + p.Model + "\n")
		sb.WriteString("   규격: " + p.Size + "\n")
		sb.WriteString("   공장도: " + won(p.FactoryPrice) + "\n")
		sb.WriteString("   할인율: " + pct(p.DiscountRate) + "%\n")
		sb.WriteString("   판매가: " + won(pricing.FinalPrice(p.FactoryPrice, p.DiscountRate)) + "\n")
		sb.WriteString("   재고: " + strconv.FormatInt(p.TotalStock, 10) + "개\n")
		sb.WriteString("   DOT: " + dot + "\n\n")
	}
	sb.WriteString(rule)
	if b.Phone != "" {
		sb.WriteString("Tel. " + b.Phone + "\n")
	}
	sb.WriteString(b.BankAccount)
	return sb.String()
}
