// Package mcpserver exposes order placement, order lookup and status notification as Model
// Context Protocol tools over stdio, so an assistant can drive the gateway directly:
//   - place_order: create an order from items, address and phone number
//   - order_status: list the orders placed from a phone number
//   - notify_status: send the current status message for an order
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
	"chat-gateway/internal/services/notification"
)

const (
	// ServerName is the MCP server name
	ServerName = "chat-gateway"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// OrderService places and lists orders
type OrderService interface {
	PlaceOrder(ctx context.Context, body []byte, requestID string) (string, error)
	OrdersByPhone(ctx context.Context, phone, requestID string) ([]models.Order, error)
}

// StatusNotifier sends order status messages
type StatusNotifier interface {
	Notify(ctx context.Context, orderID, requestID string) (*notification.Notification, error)
}

// Server wraps the MCP server with the gateway services
type Server struct {
	mcp      *server.MCPServer
	orders   OrderService
	notifier StatusNotifier
	logger   *logger.Logger
}

// NewServer creates the MCP server and registers its tools
func NewServer(orders OrderService, notifier StatusNotifier, log *logger.Logger) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		orders:   orders,
		notifier: notifier,
		logger:   log,
	}

	s.mcp.AddTool(placeOrderTool(), s.handlePlaceOrder)
	s.mcp.AddTool(orderStatusTool(), s.handleOrderStatus)
	s.mcp.AddTool(notifyStatusTool(), s.handleNotifyStatus)

	return s
}

// Serve runs the MCP server on stdio and blocks until stdin closes
func (s *Server) Serve() error {
	s.logger.Info("service_started", "MCP server listening on stdio", "", map[string]interface{}{
		"name":    ServerName,
		"version": ServerVersion,
	})
	return server.ServeStdio(s.mcp)
}
