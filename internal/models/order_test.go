package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemSetKeepsKeyOrder(t *testing.T) {
	var items ItemSet
	require.NoError(t, json.Unmarshal([]byte(`{"7": 1, "1": 2, "3": 4}`), &items))

	assert.Equal(t, ItemSet{
		{ItemID: "7", Quantity: 1},
		{ItemID: "1", Quantity: 2},
		{ItemID: "3", Quantity: 4},
	}, items)

	out, err := json.Marshal(items)
	require.NoError(t, err)
	assert.JSONEq(t, `{"7":1,"1":2,"3":4}`, string(out))
	assert.Equal(t, `{"7":1,"1":2,"3":4}`, string(out))
}

func TestParseItemsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "array", in: `[1, 2]`},
		{name: "zero quantity", in: `{"1": 0}`},
		{name: "negative quantity", in: `{"1": -2}`},
		{name: "fractional quantity", in: `{"1": 1.5}`},
		{name: "non numeric quantity", in: `{"1": "many"}`},
		{name: "null quantity", in: `{"1": null}`},
		{name: "duplicate key", in: `{"1": 1, "1": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItems([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestParseItemsDuplicateKeyError(t *testing.T) {
	_, err := ParseItems([]byte(`{"1": 1, "1": 2}`))
	assert.True(t, errors.Is(err, errItemsDuplicateID))
}

func TestItemSetReadsStoredQuantitiesLeniently(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ItemSet
	}{
		{name: "null quantity", in: `{"1": null, "2": 1}`, want: ItemSet{{ItemID: "1", Quantity: 1}, {ItemID: "2", Quantity: 1}}},
		{name: "zero quantity", in: `{"1": 0}`, want: ItemSet{{ItemID: "1", Quantity: 1}}},
		{name: "non numeric quantity", in: `{"1": "many", "3": 4}`, want: ItemSet{{ItemID: "1", Quantity: 1}, {ItemID: "3", Quantity: 4}}},
		{name: "repeated key keeps last", in: `{"1": 1, "2": 1, "1": 3}`, want: ItemSet{{ItemID: "1", Quantity: 3}, {ItemID: "2", Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var items ItemSet
			require.NoError(t, json.Unmarshal([]byte(tt.in), &items))
			assert.Equal(t, tt.want, items)
		})
	}

	var items ItemSet
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &items))
}

func TestItemSetQuantity(t *testing.T) {
	items := ItemSet{{ItemID: "1", Quantity: 2}}
	q, ok := items.Quantity("1")
	assert.True(t, ok)
	assert.Equal(t, 2, q)

	_, ok = items.Quantity("2")
	assert.False(t, ok)
}

func TestLineItemMenuID(t *testing.T) {
	id, ok := LineItem{ItemID: "12"}.MenuID()
	assert.True(t, ok)
	assert.Equal(t, 12, id)

	_, ok = LineItem{ItemID: "burger"}.MenuID()
	assert.False(t, ok)
}

func TestEmptyItemSetMarshal(t *testing.T) {
	out, err := json.Marshal(ItemSet{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}
