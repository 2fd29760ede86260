package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"circular-storefront/internal/client"
	"circular-storefront/internal/events"
	"circular-storefront/internal/model"

	"go.uber.org/zap"
)

var statusSubjects = map[model.OrderStatus]string{
	model.OrderStatusConfirmed:  "Your order is confirmed",
	model.OrderStatusProcessing: "We're preparing your order",
	model.OrderStatusShipped:    "Your order is on its way",
	model.OrderStatusArrived:    "Your order has arrived in your area",
	model.OrderStatusDelivered:  "Your order has been delivered",
}

var statusEmail = template.Must(template.New("status").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hi {{if .RecipientName}}{{.RecipientName}}{{else}}there{{end}},</p>
<p>{{.Headline}}.</p>
<table>
<tr><td>Order</td><td>{{.OrderID}}</td></tr>
<tr><td>Total</td><td>{{.Total}} {{.Currency}}</td></tr>
{{- if .TrackingNumber}}
<tr><td>Tracking</td><td>{{.TrackingNumber}}{{if .TrackingCarrier}} ({{.TrackingCarrier}}){{end}}</td></tr>
{{- end}}
{{- if .EstimatedDelivery}}
<tr><td>Estimated delivery</td><td>{{.EstimatedDelivery}}</td></tr>
{{- end}}
</table>
<p><a href="{{.TrackURL}}">Track your order</a></p>
<p>Thank you for giving pre-loved fashion a second life.</p>
</body></html>`))

type statusEmailData struct {
	RecipientName     string
	Headline          string
	OrderID           string
	Total             string
	Currency          string
	TrackingNumber    string
	TrackingCarrier   string
	EstimatedDelivery string
	TrackURL          string
}

// EmailSettings are the config fallbacks for values managed in the CMS.
type EmailSettings struct {
	APIKey      string
	FromAddress string
	BaseURL     string
}

// OrderNotifier sends the customer email for a status change.
type OrderNotifier struct {
	emailClient client.EmailClient
	content     ContentService
	settings    EmailSettings
	log         *zap.Logger
}

func NewOrderNotifier(emailClient client.EmailClient, content ContentService, settings EmailSettings, log *zap.Logger) *OrderNotifier {
	return &OrderNotifier{
		emailClient: emailClient,
		content:     content,
		settings:    settings,
		log:         log,
	}
}

func (n *OrderNotifier) Handle(ctx context.Context, evt events.StatusChanged) error {
	subject, ok := statusSubjects[evt.NewStatus]
	if !ok {
		return nil
	}

	apiKey, from, replyTo, err := n.credentials(ctx)
	if err != nil {
		return err
	}

	html, err := renderStatusEmail(evt, subject, n.settings.BaseURL)
	if err != nil {
		return err
	}

	resp, err := n.emailClient.Send(ctx, apiKey, &client.Email{
		From:    from,
		To:      []string{evt.RecipientEmail},
		Subject: fmt.Sprintf("%s (%s)", subject, shortID(evt.OrderID)),
		HTML:    html,
		ReplyTo: replyTo,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	n.log.Info("order notification sent",
		zap.String("order_id", evt.OrderID),
		zap.String("status", string(evt.NewStatus)),
		zap.String("email_id", resp.ID))
	return nil
}

func (n *OrderNotifier) credentials(ctx context.Context) (apiKey, from, replyTo string, err error) {
	apiKey, err = n.content.Setting(ctx, PageIntegrations, SectionEmailProvider, IntegrationAPIKeyField)
	if err != nil {
		return "", "", "", fmt.Errorf("read email api key: %w", err)
	}
	if apiKey == "" {
		apiKey = n.settings.APIKey
	}

	from, err = n.content.Setting(ctx, PageIntegrations, SectionEmailProvider, "from_address")
	if err != nil {
		return "", "", "", fmt.Errorf("read email sender: %w", err)
	}
	if from == "" {
		from = n.settings.FromAddress
	}

	replyTo, err = n.content.Setting(ctx, PageIntegrations, SectionEmailProvider, "reply_to")
	if err != nil {
		return "", "", "", fmt.Errorf("read email reply-to: %w", err)
	}
	return apiKey, from, replyTo, nil
}

func renderStatusEmail(evt events.StatusChanged, subject, baseURL string) (string, error) {
	data := statusEmailData{
		RecipientName:   evt.RecipientName,
		Headline:        subject,
		OrderID:         evt.OrderID,
		Total:           evt.TotalAmount.StringFixed(2),
		Currency:        evt.Currency,
		TrackingNumber:  evt.TrackingNumber,
		TrackingCarrier: evt.TrackingCarrier,
		TrackURL:        strings.TrimRight(baseURL, "/") + "/track?order_id=" + evt.OrderID,
	}
	if evt.EstimatedDelivery != nil {
		data.EstimatedDelivery = evt.EstimatedDelivery.Format("2 January 2006")
	}

	var buf bytes.Buffer
	if err := statusEmail.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render status email: %w", err)
	}
	return buf.String(), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return "#" + strings.ToUpper(id[:8])
	}
	return "#" + strings.ToUpper(id)
}
