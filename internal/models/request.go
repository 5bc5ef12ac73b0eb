package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Required place-order fields, in reporting order.
const (
	FieldItems           = "items"
	FieldDeliveryAddress = "delivery_address"
	FieldPhoneNumber     = "phone_number"
	FieldSpecialRequests = "special_requests"
	FieldArgs            = "args"
)

var requiredOrderFields = []string{FieldItems, FieldDeliveryAddress, FieldPhoneNumber}

// PlaceOrderRequest is a validated place-order payload. Strings are kept exactly as submitted.
type PlaceOrderRequest struct {
	Items           ItemSet `json:"items"`
	DeliveryAddress string  `json:"delivery_address"`
	PhoneNumber     string  `json:"phone_number"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

// ToNewOrder converts the request into the store input
func (r *PlaceOrderRequest) ToNewOrder() NewOrder {
	return NewOrder{
		Items:               r.Items,
		DeliveryAddress:     r.DeliveryAddress,
		CustomerPhoneNumber: r.PhoneNumber,
		SpecialRequests:     r.SpecialRequests,
	}
}

// DecodePlaceOrder parses an untrusted body that is either the order object or {"args": <order
// object>}. The args wrapper is unwrapped once. Missing fields are reported before invalid ones.
func DecodePlaceOrder(body []byte) (*PlaceOrderRequest, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewValidationError("No JSON data provided")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, NewValidationError("Request body must be a JSON object")
	}

	fields := envelope
	if args, ok := envelope[FieldArgs]; ok {
		if isNull(args) {
			return nil, NewValidationError("No order data provided")
		}
		fields = nil
		if err := json.Unmarshal(args, &fields); err != nil {
			return nil, NewValidationError("Order data must be a JSON object")
		}
	}

	return decodeOrderFields(fields)
}

func decodeOrderFields(fields map[string]json.RawMessage) (*PlaceOrderRequest, error) {
	var missing []string
	for _, name := range requiredOrderFields {
		if raw, ok := fields[name]; !ok || isNull(raw) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, MissingFieldsError(missing)
	}

	req := &PlaceOrderRequest{}
	var invalid, reasons []string

	if items, err := ParseItems(fields[FieldItems]); err != nil {
		invalid = append(invalid, FieldItems)
		reasons = append(reasons, err.Error())
	} else if len(items) == 0 {
		invalid = append(invalid, FieldItems)
		reasons = append(reasons, "items must not be empty")
	} else {
		req.Items = items
	}

	if s, ok := nonEmptyString(fields[FieldDeliveryAddress]); ok {
		req.DeliveryAddress = s
	} else {
		invalid = append(invalid, FieldDeliveryAddress)
		reasons = append(reasons, "delivery_address must be a non-empty string")
	}

	if s, ok := nonEmptyString(fields[FieldPhoneNumber]); ok {
		req.PhoneNumber = s
	} else {
		invalid = append(invalid, FieldPhoneNumber)
		reasons = append(reasons, "phone_number must be a non-empty string")
	}

	if raw, ok := fields[FieldSpecialRequests]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			invalid = append(invalid, FieldSpecialRequests)
			reasons = append(reasons, "special_requests must be a string")
		} else if s != "" {
			req.SpecialRequests = &s
		}
	}

	if len(invalid) > 0 {
		return nil, InvalidFieldsError(invalid, reasons)
	}

	return req, nil
}

// nonEmptyString returns the string as submitted; a blank value is rejected but never trimmed.
func nonEmptyString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, strings.TrimSpace(s) != ""
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
