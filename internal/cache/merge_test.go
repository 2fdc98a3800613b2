package cache

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/freelance-pro/internal/models"
)

func TestMerge(t *testing.T) {
	cur := models.Client{Meta: models.Meta{ID: "client-1", UserID: "user-1"}, Name: "Acme", Email: "a@acme.test"}

	got, err := Merge(cur, map[string]json.RawMessage{
		"name":  json.RawMessage(`"Acme Corp"`),
		"phone": json.RawMessage(`"555"`),
		"id":    json.RawMessage(`"other"`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)
	assert.Equal(t, "555", got.Phone)
	assert.Equal(t, "a@acme.test", got.Email)
	assert.Equal(t, "client-1", got.ID)
	assert.Equal(t, "Acme", cur.Name, "input untouched")
}

func TestMergeIsShallow(t *testing.T) {
	cur := models.Invoice{Items: []models.InvoiceItem{{ID: "a", Quantity: 1}, {ID: "b", Quantity: 2}}}
	got, err := Merge(cur, map[string]json.RawMessage{
		"items": json.RawMessage(`[{"id":"c","description":"x","quantity":3,"unitPrice":1}]`),
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "c", got.Items[0].ID)
}

func TestMergeErrors(t *testing.T) {
	cur := models.Client{Name: "Acme"}
	_, err := Merge(cur, map[string]json.RawMessage{"unknown": json.RawMessage(`1`)})
	assert.Error(t, err)
	_, err = Merge(cur, map[string]json.RawMessage{"name": json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestMergeEmptyPatch(t *testing.T) {
	cur := models.Contract{Meta: models.Meta{ID: "ct-001"}, Title: "T", Value: 10}
	got, err := Merge(cur, nil)
	require.NoError(t, err)
	assert.Equal(t, cur, got)
}
