package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func placeOrderTool() mcp.Tool {
	return mcp.Tool{
		Name:        "place_order",
		Description: "Place a delivery order for a customer",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"items": map[string]interface{}{
					"type":                 "object",
					"description":          "Menu item id to quantity, e.g. {\"1\": 2}",
					"additionalProperties": map[string]interface{}{"type": "integer", "minimum": 1},
				},
				"delivery_address": map[string]interface{}{
					"type":        "string",
					"description": "Where the order is delivered",
				},
				"phone_number": map[string]interface{}{
					"type":        "string",
					"description": "Customer WhatsApp number, receives status updates",
				},
				"special_requests": map[string]interface{}{
					"type":        "string",
					"description": "Optional notes for the kitchen or driver",
				},
			},
			Required: []string{"items", "delivery_address", "phone_number"},
		},
	}
}

func orderStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "order_status",
		Description: "List the orders placed from a phone number, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"phone_number": map[string]interface{}{
					"type":        "string",
					"description": "Customer WhatsApp number",
				},
			},
			Required: []string{"phone_number"},
		},
	}
}

func notifyStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "notify_status",
		Description: "Send the customer a WhatsApp message describing the current status of an order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "Order identifier returned by place_order",
				},
			},
			Required: []string{"order_id"},
		},
	}
}
