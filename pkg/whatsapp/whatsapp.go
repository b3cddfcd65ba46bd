// Package whatsapp composes the pre-filled order message and wa.me deep link used at checkout.
package whatsapp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var ErrInvalidNumber = errors.New("whatsapp number must contain digits only, including country code")

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type Item struct {
	Name      string
	Variant   string
	Quantity  int
	UnitPrice float64
}

type Totals struct {
	Subtotal float64
	Shipping float64
	Discount float64
	Tax      float64
	Total    float64
}

type Order struct {
	Customer Customer
	Items    []Item
	Totals   Totals
}

type Builder struct {
	StoreName string
	Number    string
	Currency  string
}

// NewBuilder strips a leading + and spaces from number and rejects anything that is not a phone number
func NewBuilder(storeName, number, currency string) (*Builder, error) {
	number = strings.NewReplacer("+", "", " ", "", "-", "").Replace(number)
	if number == "" || strings.IndexFunc(number, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return nil, ErrInvalidNumber
	}
	return &Builder{StoreName: storeName, Number: number, Currency: currency}, nil
}

func (b *Builder) money(v float64) string {
	return b.Currency + decimal.NewFromFloat(v).StringFixed(2)
}

func (b *Builder) Message(order Order) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🛒 *New Order from %s Website*\n\n", b.StoreName)

	sb.WriteString("👤 *Customer Details:*\n")
	fmt.Fprintf(&sb, "Name: %s\n", order.Customer.Name)
	fmt.Fprintf(&sb, "Phone: %s\n", order.Customer.Phone)
	if order.Customer.Email != "" {
		fmt.Fprintf(&sb, "Email: %s\n", order.Customer.Email)
	}
	if order.Customer.Address != "" {
		fmt.Fprintf(&sb, "Address: %s\n", order.Customer.Address)
	}
	sb.WriteString("\n")

	sb.WriteString("📦 *Order Items:*\n")
	for i, item := range order.Items {
		lineTotal := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity))).InexactFloat64()
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item.Name)
		fmt.Fprintf(&sb, "   Qty: %d × %s = %s\n", item.Quantity, b.money(item.UnitPrice), b.money(lineTotal))
		if item.Variant != "" {
			fmt.Fprintf(&sb, "   Variant: %s\n", item.Variant)
		}
		sb.WriteString("\n")
	}

	t := order.Totals
	fmt.Fprintf(&sb, "Subtotal: %s\n", b.money(t.Subtotal))
	if t.Shipping > 0 {
		fmt.Fprintf(&sb, "Shipping: %s\n", b.money(t.Shipping))
	} else {
		sb.WriteString("Shipping: FREE\n")
	}
	if t.Discount > 0 {
		fmt.Fprintf(&sb, "Discount: -%s\n", b.money(t.Discount))
	}
	fmt.Fprintf(&sb, "Tax: %s\n", b.money(t.Tax))
	fmt.Fprintf(&sb, "💰 *Total Amount: %s*\n\n", b.money(t.Total))

	sb.WriteString("📞 Please confirm this order and let me know the delivery details.\n")
	fmt.Fprintf(&sb, "Thank you for choosing %s! 🏠✨", b.StoreName)

	return sb.String()
}

// Link returns https://wa.me/<number>?text=<message> with spaces encoded as %20
func (b *Builder) Link(message string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + b.Number + "?text=" + encoded
}
