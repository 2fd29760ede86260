package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type SendEmailResponse struct {
	ID string `json:"id"`
}

// EmailClient talks to the transactional email provider. The API key is
// passed per call because it is managed from the admin console.
type EmailClient interface {
	TestConnection(ctx context.Context, apiKey string) error
	Send(ctx context.Context, apiKey string, email *Email) (*SendEmailResponse, error)
}

type emailClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewEmailClient(baseApiURL string) EmailClient {
	return &emailClientImpl{
		httpClient: newHTTPClient(),
		baseApiURL: strings.TrimRight(baseApiURL, "/"),
	}
}

func bearer(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func (c *emailClientImpl) TestConnection(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("email provider api key is not configured")
	}
	return doJSON(ctx, c.httpClient, "email", http.MethodGet, c.baseApiURL+"/domains", bearer(apiKey), nil, nil)
}

func (c *emailClientImpl) Send(ctx context.Context, apiKey string, email *Email) (*SendEmailResponse, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("email provider api key is not configured")
	}

	var resp SendEmailResponse
	if err := doJSON(ctx, c.httpClient, "email", http.MethodPost, c.baseApiURL+"/emails", bearer(apiKey), email, &resp); err != nil {
		return nil, fmt.Errorf("send email: %w", err)
	}
	return &resp, nil
}
