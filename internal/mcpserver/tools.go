package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

// handlePlaceOrder passes the tool arguments through the same decoder as the HTTP route
func (s *Server) handlePlaceOrder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := logger.GenerateRequestID()

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	orderID, err := s.orders.PlaceOrder(ctx, body, requestID)
	if err != nil {
		return toolError(err, "Failed to place order"), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"order_id": orderID,
		"message":  "Order placed successfully",
	})), nil
}

func (s *Server) handleOrderStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := logger.GenerateRequestID()

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}
	phone, _ := args["phone_number"].(string)

	orders, err := s.orders.OrdersByPhone(ctx, phone, requestID)
	if err != nil {
		return toolError(err, "Failed to load orders"), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"phone_number": phone,
		"orders":       orders,
	})), nil
}

func (s *Server) handleNotifyStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requestID := logger.GenerateRequestID()

	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments"), nil
	}

	orderID := stringArg(args, "order_id")
	sent, err := s.notifier.Notify(ctx, orderID, requestID)
	if err != nil {
		return toolError(err, "Failed to send notification"), nil
	}

	response := map[string]interface{}{
		"message":   "Notification sent successfully",
		"order_id":  sent.OrderID,
		"recipient": sent.Recipient,
		"status":    sent.Status,
		"text":      sent.Text,
	}
	if len(sent.Unresolved) > 0 {
		response["unresolved_items"] = sent.Unresolved
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// toolError renders a service error for the calling agent. Store failures are reported generically.
func toolError(err error, fallback string) *mcp.CallToolResult {
	var (
		validationErr *models.ValidationError
		notFoundErr   *models.NotFoundError
		deliveryErr   *models.DeliveryError
	)

	switch {
	case errors.As(err, &validationErr):
		return mcp.NewToolResultError(validationErr.Message)
	case errors.As(err, &notFoundErr):
		return mcp.NewToolResultError(notFoundErr.Error())
	case errors.As(err, &deliveryErr):
		return mcp.NewToolResultError(deliveryErr.Error())
	default:
		return mcp.NewToolResultError(fallback)
	}
}

// stringArg reads a string argument, accepting numbers as agents often send ids unquoted
func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}
