package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() *OrderDetails {
	return &OrderDetails{
		Supplier: "Acme",
		Items: []LineItem{
			{Description: "widgets", Quantity: 3, UnitPrice: 9.99},
			{Description: "gadgets", Quantity: 1, UnitPrice: 100},
		},
		Note: "rush order",
	}
}

func TestOrderDetails_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OrderDetails)
		wantErr bool
	}{
		{name: "valid", mutate: func(d *OrderDetails) {}},
		{name: "missing supplier", mutate: func(d *OrderDetails) { d.Supplier = "" }, wantErr: true},
		{name: "no items", mutate: func(d *OrderDetails) { d.Items = nil }, wantErr: true},
		{name: "empty description", mutate: func(d *OrderDetails) { d.Items[0].Description = "" }, wantErr: true},
		{name: "zero quantity", mutate: func(d *OrderDetails) { d.Items[0].Quantity = 0 }, wantErr: true},
		{name: "negative price", mutate: func(d *OrderDetails) { d.Items[1].UnitPrice = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDetails()
			tt.mutate(d)
			err := d.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrderDetails_Renderings(t *testing.T) {
	d := validDetails()

	summary := string(d.RenderSummary())
	assert.Contains(t, summary, "Acme")
	assert.Contains(t, summary, "3 x widgets")
	assert.Contains(t, summary, "Total: 129.97")
	assert.Contains(t, summary, "rush order")

	detail, err := d.RenderDetail()
	require.NoError(t, err)

	parsed, err := ParseOrderDetails(detail)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusApproved.Terminal())
	assert.True(t, StatusRejected.Terminal())
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []Role{RoleSender, RoleSupervisor}}
	assert.True(t, u.HasRole(RoleSender))
	assert.False(t, u.HasRole(RolePurchaser))
}
