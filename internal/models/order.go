package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// OrderStatus is the store-defined order status. Values other than the constants below are
// carried through untouched.
type OrderStatus string

const (
	StatusCreated   OrderStatus = "CREATED"
	StatusOnRoute   OrderStatus = "ON_ROUTE"
	StatusDelivered OrderStatus = "DELIVERED"
)

// Order represents a customer order
type Order struct {
	ID                  string      `json:"order_id" bson:"order_id"`
	Items               ItemSet     `json:"items" bson:"items"`
	DeliveryAddress     string      `json:"delivery_address" bson:"delivery_address"`
	CustomerPhoneNumber string      `json:"customer_phone_number" bson:"customer_phone_number"`
	SpecialRequests     *string     `json:"special_requests,omitempty" bson:"special_requests,omitempty"`
	Status              OrderStatus `json:"status" bson:"status"`
	CreatedAt           time.Time   `json:"created_at" bson:"created_at"`
}

// NewOrder is what the intake hands to a store for persistence.
type NewOrder struct {
	Items               ItemSet
	DeliveryAddress     string
	CustomerPhoneNumber string
	SpecialRequests     *string
}

// MenuItem is read-only reference data owned by the store
type MenuItem struct {
	ID   int    `json:"item_id" bson:"item_id"`
	Name string `json:"name" bson:"name"`
}

// LineItem is one entry of an order's item mapping
type LineItem struct {
	ItemID   string `bson:"item_id"`
	Quantity int    `bson:"quantity"`
}

// MenuID returns the integer menu key for the line item, or false if the id is not numeric.
func (li LineItem) MenuID() (int, bool) {
	id, err := strconv.Atoi(li.ItemID)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ItemSet maps item ids to quantities. The JSON form is an object; key order is kept.
type ItemSet []LineItem

var (
	errItemsNotObject   = errors.New("items must be an object of item id to quantity")
	errItemsDuplicateID = errors.New("items contains a duplicate item id")
)

// Quantity returns the quantity for itemID and whether it is present.
func (s ItemSet) Quantity(itemID string) (int, bool) {
	for _, li := range s {
		if li.ItemID == itemID {
			return li.Quantity, true
		}
	}
	return 0, false
}

// ParseItems decodes submitted items, preserving key order. Quantities must be positive integers
// and keys must be unique.
func ParseItems(data []byte) (ItemSet, error) {
	return decodeItems(data, true)
}

// UnmarshalJSON decodes a stored item mapping such as {"1": 2, "7": null}, preserving key order.
// A quantity that is null or not a positive integer reads as 1; a repeated key keeps its last value.
func (s *ItemSet) UnmarshalJSON(data []byte) error {
	items, err := decodeItems(data, false)
	if err != nil {
		return err
	}
	*s = items
	return nil
}

func decodeItems(data []byte, strict bool) (ItemSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errItemsNotObject
	}

	items := ItemSet{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errItemsNotObject
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		qty, ok := parseQuantity(raw)
		if !ok {
			if strict {
				return nil, fmt.Errorf("quantity for item %q must be a positive integer", key)
			}
			qty = 1
		}

		if i, dup := index[key]; dup {
			if strict {
				return nil, fmt.Errorf("%w: %q", errItemsDuplicateID, key)
			}
			items[i].Quantity = qty
			continue
		}
		index[key] = len(items)
		items = append(items, LineItem{ItemID: key, Quantity: qty})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

func parseQuantity(raw json.RawMessage) (int, bool) {
	var qty json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&qty); err != nil {
		return 0, false
	}
	n, err := qty.Int64()
	if err != nil || n < 1 {
		return 0, false
	}
	return int(n), true
}

// MarshalJSON encodes the set as an object in insertion order.
func (s ItemSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, li := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(li.ItemID)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(li.Quantity))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
