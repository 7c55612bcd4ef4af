// Package megaapi sends WhatsApp text messages through the MegaAPI gateway.
package megaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LucasNeuro/menogeo/internal/config"
	errx "github.com/LucasNeuro/menogeo/internal/core/error"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

const jidSuffix = "@s.whatsapp.net"

// messageData is the gateway's required payload envelope.
type messageData struct {
	To          string `json:"to"`
	Text        string `json:"text"`
	LinkPreview bool   `json:"linkPreview"`
}

type sendRequest struct {
	MessageData messageData `json:"messageData"`
}

// Client posts text messages to the MegaAPI sendMessage endpoint. Sending is
// the only outbound call with retries: a lost reply is a dead conversation,
// so it gets a bounded retry with fixed backoff.
type Client struct {
	cfg   config.MegaAPIConfig
	http  *http.Client
	sleep func(time.Duration)
}

func NewClient(cfg config.MegaAPIConfig) *Client {
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		sleep: time.Sleep,
	}
}

// SendText delivers one text message to a phone or group address. The
// 1:1 channel suffix is stripped; group addresses (@g.us) pass through.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	to = strings.TrimSuffix(to, jidSuffix)

	body, err := json.Marshal(sendRequest{MessageData: messageData{
		To:          to,
		Text:        text,
		LinkPreview: false,
	}})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/sendMessage/%s/text", strings.TrimSuffix(c.cfg.URL, "/"), c.cfg.InstanceKey)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		lastErr = c.post(ctx, url, body)
		if lastErr == nil {
			return nil
		}
		logx.Warn().Err(lastErr).Int("attempt", attempt).Str("to", to).Msg("send attempt failed")
		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return errx.WrapGateway(ctx.Err())
			default:
			}
			c.sleep(c.cfg.RetryBackoff)
		}
	}
	return errx.WrapGateway(lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway responded %d", resp.StatusCode)
	}
	return nil
}
