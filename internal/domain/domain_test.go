package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_WithTax(t *testing.T) {
	tests := []struct {
		price Money
		want  Money
	}{
		{1000, 1100},
		{1999, 2199}, // 21.989 rounds up
		{5, 6},       // 0.055 rounds half-up
		{4, 4},       // 0.044 rounds down
		{0, 0},
		{-5, -6},
	}

	for _, tt := range tests {
		t.Run(tt.price.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.price.WithTax())
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "19.99", Money(1999).String())
	assert.Equal(t, "0.05", Money(5).String())
	assert.Equal(t, "-1.50", Money(-150).String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Price Money `json:"price"`
	}{Price: 1250})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":12.50}`, string(data))

	var decoded struct {
		Price Money `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":19.99}`), &decoded))
	assert.Equal(t, Money(1999), decoded.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price":"7.5"}`), &decoded))
	assert.Equal(t, Money(750), decoded.Price)

	assert.Error(t, json.Unmarshal([]byte(`{"price":"seven"}`), &decoded))
}

func TestMoneyFromFloat_RoundsToCent(t *testing.T) {
	assert.Equal(t, Money(1999), MoneyFromFloat(19.99))
	assert.Equal(t, Money(30), MoneyFromFloat(0.1+0.2))
}

func TestOrder_Total(t *testing.T) {
	o := Order{Items: []OrderItem{
		{Quantity: 2, UnitPrice: 500},
		{Quantity: 1, UnitPrice: 1250},
	}}

	assert.Equal(t, Money(2250), o.Total())
}

func TestCart_TotalUsesCurrentPrice(t *testing.T) {
	c := Cart{Items: []CartItem{
		{Quantity: 3, Product: &Product{UnitPrice: 100}},
		{Quantity: 1}, // product not loaded
	}}

	assert.Equal(t, Money(300), c.Total())
}

func TestContentType_Name(t *testing.T) {
	ct := ContentType{ID: 1, AppLabel: "store", Model: "product"}
	assert.Equal(t, "store.product", ct.Name())
}

func TestCustomer_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Customer{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&Customer{FirstName: "Ada"}).FullName())
}

func TestValidStatuses(t *testing.T) {
	assert.True(t, ValidPaymentStatus(PaymentComplete))
	assert.False(t, ValidPaymentStatus("X"))
	assert.True(t, ValidMembership(MembershipGold))
	assert.False(t, ValidMembership("g"))
}
