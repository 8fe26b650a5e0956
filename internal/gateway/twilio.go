// internal/gateway/twilio.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	appErrors "github.com/lironamy/wedding-us-sub002/internal/errors"
)

// TwilioClient talks to the Twilio WhatsApp messaging API.
type TwilioClient struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

func NewTwilioClient(accountSID, authToken, fromNumber, baseURL string) *TwilioClient {
	return &TwilioClient{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TwilioClient) Configured() error {
	switch {
	case c.accountSID == "":
		return appErrors.NewGatewayNotConfigured("TWILIO_ACCOUNT_SID")
	case c.authToken == "":
		return appErrors.NewGatewayNotConfigured("TWILIO_AUTH_TOKEN")
	case c.fromNumber == "":
		return appErrors.NewGatewayNotConfigured("TWILIO_FROM_NUMBER")
	}
	return nil
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (c *TwilioClient) SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (string, error) {
	if err := c.Configured(); err != nil {
		return "", err
	}

	contentVars, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("encode content variables: %w", err)
	}

	form := url.Values{}
	form.Set("To", "whatsapp:"+to)
	form.Set("From", "whatsapp:"+c.fromNumber)
	form.Set("ContentSid", templateID)
	form.Set("ContentVariables", string(contentVars))

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	var body twilioResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode gateway response (HTTP %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("gateway rejected message (code %d): %s", body.Code, body.Message)
	}
	if body.SID == "" {
		return "", fmt.Errorf("gateway returned no message id (HTTP %d)", resp.StatusCode)
	}
	return body.SID, nil
}

var _ Client = (*TwilioClient)(nil)
