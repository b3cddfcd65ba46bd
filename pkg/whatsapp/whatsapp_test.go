package whatsapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() Order {
	return Order{
		Customer: Customer{Name: "Asha Patil", Phone: "9876543210", Address: "12 MG Road, Pune"},
		Items: []Item{
			{Name: "Floor Cleaner", Quantity: 2, UnitPrice: 12.5},
			{Name: "Dish Soap", Variant: "Lemon", Quantity: 1, UnitPrice: 4.99},
		},
		Totals: Totals{Subtotal: 29.99, Shipping: 5.99, Tax: 2.4, Total: 38.38},
	}
}

func TestNewBuilder(t *testing.T) {
	b, err := NewBuilder("Milan Enterprises", "+91 92849-92154", "₹")
	require.NoError(t, err)
	assert.Equal(t, "919284992154", b.Number)

	_, err = NewBuilder("Milan Enterprises", "call-me", "₹")
	assert.ErrorIs(t, err, ErrInvalidNumber)
	_, err = NewBuilder("Milan Enterprises", "", "₹")
	assert.ErrorIs(t, err, ErrInvalidNumber)
}

func TestBuilder_Message(t *testing.T) {
	b, err := NewBuilder("Milan Enterprises", "919284992154", "₹")
	require.NoError(t, err)

	msg := b.Message(testOrder())
	assert.True(t, strings.HasPrefix(msg, "🛒 *New Order from Milan Enterprises Website*"))
	assert.Contains(t, msg, "Name: Asha Patil\n")
	assert.Contains(t, msg, "Address: 12 MG Road, Pune\n")
	assert.NotContains(t, msg, "Email:")
	assert.Contains(t, msg, "1. Floor Cleaner\n   Qty: 2 × ₹12.50 = ₹25.00\n")
	assert.Contains(t, msg, "2. Dish Soap\n   Qty: 1 × ₹4.99 = ₹4.99\n   Variant: Lemon\n")
	assert.Contains(t, msg, "Shipping: ₹5.99\n")
	assert.Contains(t, msg, "*Total Amount: ₹38.38*")
	assert.True(t, strings.HasSuffix(msg, "Thank you for choosing Milan Enterprises! 🏠✨"))

	free := testOrder()
	free.Totals.Shipping = 0
	free.Totals.Discount = 3
	msg = b.Message(free)
	assert.Contains(t, msg, "Shipping: FREE\n")
	assert.Contains(t, msg, "Discount: -₹3.00\n")
}

func TestBuilder_LinkRoundTrips(t *testing.T) {
	b, err := NewBuilder("Milan Enterprises", "919284992154", "₹")
	require.NoError(t, err)

	msg := b.Message(testOrder())
	link := b.Link(msg)
	require.True(t, strings.HasPrefix(link, "https://wa.me/919284992154?text="))
	assert.NotContains(t, link, "+")
	assert.NotContains(t, link, " ")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, msg, parsed.Query().Get("text"))
}
