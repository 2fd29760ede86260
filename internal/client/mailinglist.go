package client

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

type ListMember struct {
	Email string
	Name  string
}

type Campaign struct {
	Subject  string
	FromName string
	ReplyTo  string
	HTML     string
}

// MailingListClient syncs newsletter subscribers to the list provider
// (Mailchimp marketing API shape).
type MailingListClient interface {
	TestConnection(ctx context.Context, apiKey string) error
	UpsertMember(ctx context.Context, apiKey, listID string, member ListMember) error
	SendCampaign(ctx context.Context, apiKey, listID string, campaign Campaign) (string, error)
}

type mailingListClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewMailingListClient(baseApiURL string) MailingListClient {
	return &mailingListClientImpl{
		httpClient: newHTTPClient(),
		baseApiURL: strings.TrimRight(baseApiURL, "/"),
	}
}

func basicAuth(apiKey string) map[string]string {
	auth := base64.StdEncoding.EncodeToString([]byte("storefront:" + apiKey))
	return map[string]string{"Authorization": "Basic " + auth}
}

// memberHash is the provider's member id: md5 of the lower-cased address.
func memberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (c *mailingListClientImpl) TestConnection(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("mailing list api key is not configured")
	}
	return doJSON(ctx, c.httpClient, "mailing list", http.MethodGet, c.baseApiURL+"/ping", basicAuth(apiKey), nil, nil)
}

func (c *mailingListClientImpl) UpsertMember(ctx context.Context, apiKey, listID string, member ListMember) error {
	url := fmt.Sprintf("%s/lists/%s/members/%s", c.baseApiURL, listID, memberHash(member.Email))
	payload := map[string]any{
		"email_address": member.Email,
		"status_if_new": "subscribed",
		"merge_fields": map[string]string{
			"FNAME": member.Name,
		},
	}
	if err := doJSON(ctx, c.httpClient, "mailing list", http.MethodPut, url, basicAuth(apiKey), payload, nil); err != nil {
		return fmt.Errorf("upsert list member: %w", err)
	}
	return nil
}

func (c *mailingListClientImpl) SendCampaign(ctx context.Context, apiKey, listID string, campaign Campaign) (string, error) {
	auth := basicAuth(apiKey)

	var created struct {
		ID string `json:"id"`
	}
	err := doJSON(ctx, c.httpClient, "mailing list", http.MethodPost, c.baseApiURL+"/campaigns", auth, map[string]any{
		"type":       "regular",
		"recipients": map[string]string{"list_id": listID},
		"settings": map[string]string{
			"subject_line": campaign.Subject,
			"from_name":    campaign.FromName,
			"reply_to":     campaign.ReplyTo,
		},
	}, &created)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}

	contentURL := fmt.Sprintf("%s/campaigns/%s/content", c.baseApiURL, created.ID)
	if err := doJSON(ctx, c.httpClient, "mailing list", http.MethodPut, contentURL, auth, map[string]string{"html": campaign.HTML}, nil); err != nil {
		return "", fmt.Errorf("set campaign content: %w", err)
	}

	sendURL := fmt.Sprintf("%s/campaigns/%s/actions/send", c.baseApiURL, created.ID)
	if err := doJSON(ctx, c.httpClient, "mailing list", http.MethodPost, sendURL, auth, nil, nil); err != nil {
		return "", fmt.Errorf("send campaign: %w", err)
	}

	return created.ID, nil
}
