// Package channel talks to the WhatsApp Cloud API: outbound text messages, the webhook
// handshake, inbound event routing and session accounting.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chat-gateway/internal/config"
	"chat-gateway/internal/logger"
)

// CloudClient sends messages through the WhatsApp Cloud (Graph) API
type CloudClient struct {
	baseURL       string
	apiVersion    string
	phoneNumberID string
	accessToken   string
	httpClient    *http.Client
	logger        *logger.Logger
}

// APIError is the error object returned by the Graph API
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	TraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whatsapp api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("whatsapp api error %d (status %d): %s", e.Code, e.StatusCode, e.Message)
}

type textMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             messageText `json:"text"`
}

type messageText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

// NewCloudClient creates a Graph API client from the whatsapp config section
func NewCloudClient(cfg config.WhatsAppConfig, log *logger.Logger) *CloudClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &CloudClient{
		baseURL:       strings.TrimRight(cfg.APIBaseURL, "/"),
		apiVersion:    cfg.APIVersion,
		phoneNumberID: cfg.PhoneNumberID,
		accessToken:   cfg.AccessToken,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        log,
	}
}

func (c *CloudClient) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

// SendMessage delivers a plain text message to the given WhatsApp number
func (c *CloudClient) SendMessage(ctx context.Context, to, text string) error {
	body, err := json.Marshal(textMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "text",
		Text:             messageText{Body: text},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var parsed sendMessageResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if parsed.Error != nil {
			apiErr = parsed.Error
			apiErr.StatusCode = resp.StatusCode
		}
		return apiErr
	}

	messageID := ""
	if len(parsed.Messages) > 0 {
		messageID = parsed.Messages[0].ID
	}

	c.logger.Debug("message_sent", "WhatsApp message accepted", "", map[string]interface{}{
		"to":         to,
		"message_id": messageID,
	})

	return nil
}
