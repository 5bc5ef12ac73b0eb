package notification

import (
	"fmt"
	"strings"

	"chat-gateway/internal/models"
)

const fallbackItemsText = "your order"

// ResolvedItem is a line item whose menu name was found
type ResolvedItem struct {
	Name     string
	Quantity int
}

// FormatItem renders one line item: the bare name, or "name xN" when more than one was ordered
func FormatItem(item ResolvedItem) string {
	if item.Quantity > 1 {
		return fmt.Sprintf("%s x%d", item.Name, item.Quantity)
	}
	return item.Name
}

// ComposeItems joins the resolved items in order. No items yields "your order".
func ComposeItems(items []ResolvedItem) string {
	if len(items) == 0 {
		return fallbackItemsText
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, FormatItem(item))
	}
	return strings.Join(parts, ", ")
}

// ComposeMessage renders the customer-facing text for an order status
func ComposeMessage(status models.OrderStatus, itemsText, deliveryAddress string) string {
	switch status {
	case models.StatusOnRoute:
		return fmt.Sprintf("Your order of %s is on route to %s. It will arrive shortly.", itemsText, deliveryAddress)
	case models.StatusDelivered:
		return fmt.Sprintf("Your order of %s has been delivered. Enjoy your food!", itemsText)
	default:
		return fmt.Sprintf("Your order of %s status has been updated to %s.", itemsText, status)
	}
}
