package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// request payload for the ZeptoMail API
type zeptoRequest struct {
	From     zeptoAddress      `json:"from"`
	To       []zeptoTarget     `json:"to"`
	Subject  string            `json:"subject"`
	HtmlBody string            `json:"htmlbody"`
	TextBody string            `json:"textbody,omitempty"`
	Headers  map[string]string `json:"mime_headers,omitempty"`
}

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoTarget struct {
	Email zeptoAddress `json:"email_address"`
}

// Zepto sends through the ZeptoMail HTTP API.
type Zepto struct {
	APIURL   string // e.g. https://api.zeptomail.com/v1.1/email
	APIKey   string // e.g. Zoho-enczapikey xxxxx
	From     string
	FromName string
	client   *http.Client
}

func NewZepto(apiURL, apiKey, from, fromName string) *Zepto {
	return &Zepto{
		APIURL:   apiURL,
		APIKey:   apiKey,
		From:     from,
		FromName: fromName,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (z *Zepto) Send(ctx context.Context, msg Message) error {
	if z.APIURL == "" || z.APIKey == "" || z.From == "" {
		return fmt.Errorf("zeptomail: %w", ErrCredentials)
	}

	payload := zeptoRequest{
		From:     zeptoAddress{Address: z.From, Name: z.FromName},
		To:       []zeptoTarget{{Email: zeptoAddress{Address: msg.To}}},
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
		Headers:  msg.Headers,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("zeptomail: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("zeptomail: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", z.APIKey)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zeptomail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPError{Provider: "zeptomail", StatusCode: resp.StatusCode, Body: string(b)}
	}
	return nil
}
