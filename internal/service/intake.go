package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"circular-storefront/internal/client"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentConfirmation is a verified successful payment, whichever provider
// reported it.
type PaymentConfirmation struct {
	EventID          string
	EventType        string
	Provider         string
	PaymentReference string
	CustomerEmail    string
	CustomerName     string
	Amount           decimal.Decimal
	Currency         string
	Items            []model.LineItem
	ShippingAddress  string
}

type IntakeResult struct {
	Order   *model.Order
	Created bool
}

type PaymentIntakeService interface {
	HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) (*IntakeResult, error)
	HandleMobileMoneyWebhook(ctx context.Context, payload []byte, signature string) (*IntakeResult, error)
	// Confirm creates the order for a payment unless one already exists
	// for the same payment reference.
	Confirm(ctx context.Context, pc PaymentConfirmation) (*IntakeResult, error)
}

type paymentIntakeServiceImpl struct {
	db                *gorm.DB
	stripeVerifier    client.StripeVerifier
	mobileMoneySecret string
	orderRepo         repository.OrderRepository
	webhookEventRepo  repository.WebhookEventRepository
	log               *zap.Logger
}

func NewPaymentIntakeService(
	db *gorm.DB,
	stripeVerifier client.StripeVerifier,
	mobileMoneySecret string,
	orderRepo repository.OrderRepository,
	webhookEventRepo repository.WebhookEventRepository,
	log *zap.Logger,
) PaymentIntakeService {
	return &paymentIntakeServiceImpl{
		db:                db,
		stripeVerifier:    stripeVerifier,
		mobileMoneySecret: mobileMoneySecret,
		orderRepo:         orderRepo,
		webhookEventRepo:  webhookEventRepo,
		log:               log,
	}
}

type stripeAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func (a *stripeAddress) String() string {
	if a == nil {
		return ""
	}
	var parts []string
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type stripeShipping struct {
	Name    string         `json:"name"`
	Address *stripeAddress `json:"address"`
}

type stripeCheckoutSession struct {
	ID              string            `json:"id"`
	PaymentIntent   json.RawMessage   `json:"payment_intent"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	CustomerEmail   string            `json:"customer_email"`
	Metadata        map[string]string `json:"metadata"`
	ShippingDetails *stripeShipping   `json:"shipping_details"`
	CustomerDetails *struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
}

type stripePaymentIntent struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ReceiptEmail string            `json:"receipt_email"`
	Metadata     map[string]string `json:"metadata"`
	Shipping     *stripeShipping   `json:"shipping"`
}

func (s *paymentIntakeServiceImpl) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) (*IntakeResult, error) {
	event, err := s.stripeVerifier.ConstructEvent(payload, sigHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		s.log.Info("stripe event already processed", zap.String("event_id", event.ID))
		return nil, nil
	}

	if event.Data == nil {
		return nil, fmt.Errorf("%w: stripe event %s has no data", ErrValidation, event.ID)
	}

	var pc PaymentConfirmation
	switch string(event.Type) {
	case "checkout.session.completed":
		pc, err = fromCheckoutSession(event.Data.Raw)
	case "payment_intent.succeeded":
		pc, err = fromPaymentIntent(event.Data.Raw)
	default:
		s.log.Debug("ignoring stripe event", zap.String("type", string(event.Type)))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pc.EventID = event.ID
	pc.EventType = string(event.Type)
	pc.Provider = model.PaymentProviderStripe
	return s.Confirm(ctx, pc)
}

func fromCheckoutSession(raw json.RawMessage) (PaymentConfirmation, error) {
	var session stripeCheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return PaymentConfirmation{}, fmt.Errorf("%w: decode checkout session: %v", ErrValidation, err)
	}

	items, err := decodeItems(session.Metadata["items"])
	if err != nil {
		return PaymentConfirmation{}, err
	}

	pc := PaymentConfirmation{
		PaymentReference: expandableID(session.PaymentIntent),
		CustomerEmail:    firstNonEmpty(session.Metadata["customer_email"], session.CustomerEmail),
		CustomerName:     session.Metadata["customer_name"],
		Amount:           minorToDecimal(session.AmountTotal, session.Currency),
		Currency:         session.Currency,
		Items:            items,
		ShippingAddress:  session.Metadata["shipping_location"],
	}
	if pc.PaymentReference == "" {
		pc.PaymentReference = session.ID
	}
	if d := session.CustomerDetails; d != nil {
		pc.CustomerEmail = firstNonEmpty(pc.CustomerEmail, d.Email)
		pc.CustomerName = firstNonEmpty(pc.CustomerName, d.Name)
	}
	if pc.ShippingAddress == "" && session.ShippingDetails != nil {
		pc.ShippingAddress = session.ShippingDetails.Address.String()
	}
	return pc, nil
}

func fromPaymentIntent(raw json.RawMessage) (PaymentConfirmation, error) {
	var intent stripePaymentIntent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return PaymentConfirmation{}, fmt.Errorf("%w: decode payment intent: %v", ErrValidation, err)
	}

	items, err := decodeItems(intent.Metadata["items"])
	if err != nil {
		return PaymentConfirmation{}, err
	}

	pc := PaymentConfirmation{
		PaymentReference: intent.ID,
		CustomerEmail:    firstNonEmpty(intent.Metadata["customer_email"], intent.ReceiptEmail),
		CustomerName:     intent.Metadata["customer_name"],
		Amount:           minorToDecimal(intent.Amount, intent.Currency),
		Currency:         intent.Currency,
		Items:            items,
		ShippingAddress:  intent.Metadata["shipping_location"],
	}
	if intent.Shipping != nil {
		pc.CustomerName = firstNonEmpty(pc.CustomerName, intent.Shipping.Name)
		if pc.ShippingAddress == "" {
			pc.ShippingAddress = intent.Shipping.Address.String()
		}
	}
	return pc, nil
}

// expandableID reads a Stripe field that is either an id string or an
// expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(raw, &obj)
	return obj.ID
}

var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func minorToDecimal(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// decodeItems parses the serialized line items carried in payment metadata.
func decodeItems(raw string) ([]model.LineItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []model.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: items metadata: %v", ErrValidation, err)
	}
	for _, item := range items {
		if item.Quantity < 1 || item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: bad line item %q", ErrValidation, item.Name)
		}
	}
	return items, nil
}

type mobileMoneyNotification struct {
	EventID       string          `json:"event_id"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Metadata      struct {
		CustomerEmail    string          `json:"customer_email"`
		CustomerName     string          `json:"customer_name"`
		Items            json.RawMessage `json:"items"`
		ShippingLocation string          `json:"shipping_location"`
	} `json:"metadata"`
}

const mobileMoneySuccessful = "SUCCESSFUL"

func (s *paymentIntakeServiceImpl) HandleMobileMoneyWebhook(ctx context.Context, payload []byte, signature string) (*IntakeResult, error) {
	if !validHMAC(payload, signature, s.mobileMoneySecret) {
		return nil, ErrInvalidSignature
	}

	var n mobileMoneyNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: decode mobile money notification: %v", ErrValidation, err)
	}

	if !strings.EqualFold(n.Status, mobileMoneySuccessful) {
		s.log.Info("ignoring mobile money notification",
			zap.String("transaction_id", n.TransactionID), zap.String("status", n.Status))
		return nil, nil
	}

	// items arrive either as a JSON array or as the serialized string the
	// checkout stored in metadata
	itemsRaw := string(n.Metadata.Items)
	var asString string
	if err := json.Unmarshal(n.Metadata.Items, &asString); err == nil {
		itemsRaw = asString
	}
	items, err := decodeItems(itemsRaw)
	if err != nil {
		return nil, err
	}

	eventID := n.EventID
	if eventID == "" {
		eventID = "mm_" + n.TransactionID
	}

	return s.Confirm(ctx, PaymentConfirmation{
		EventID:          eventID,
		EventType:        "transaction." + strings.ToLower(n.Status),
		Provider:         model.PaymentProviderMobileMoney,
		PaymentReference: n.TransactionID,
		CustomerEmail:    n.Metadata.CustomerEmail,
		CustomerName:     n.Metadata.CustomerName,
		Amount:           n.Amount,
		Currency:         n.Currency,
		Items:            items,
		ShippingAddress:  n.Metadata.ShippingLocation,
	})
}

func validHMAC(payload []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}

func (s *paymentIntakeServiceImpl) Confirm(ctx context.Context, pc PaymentConfirmation) (*IntakeResult, error) {
	if pc.PaymentReference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrValidation)
	}
	if strings.TrimSpace(pc.CustomerEmail) == "" {
		return nil, fmt.Errorf("%w: customer email is required", ErrValidation)
	}
	if pc.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	existing, err := s.orderRepo.FindByPaymentReference(ctx, nil, pc.PaymentReference)
	if err == nil {
		return &IntakeResult{Order: existing}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find order by payment reference: %w", err)
	}

	order := &model.Order{
		ID:               uuid.NewString(),
		CustomerEmail:    strings.TrimSpace(pc.CustomerEmail),
		CustomerName:     strings.TrimSpace(pc.CustomerName),
		TotalAmount:      pc.Amount,
		Currency:         strings.ToUpper(pc.Currency),
		Status:           model.OrderStatusPending,
		Items:            pc.Items,
		ShippingAddress:  pc.ShippingAddress,
		PaymentProvider:  pc.Provider,
		PaymentReference: pc.PaymentReference,
		Version:          1,
	}
	if len(order.Items) > 0 {
		order.TotalAmount = order.ItemsTotal()
		if !order.TotalAmount.Equal(pc.Amount) {
			s.log.Warn("line items do not add up to captured amount",
				zap.String("payment_reference", pc.PaymentReference),
				zap.String("items_total", order.TotalAmount.String()),
				zap.String("captured", pc.Amount.String()))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if pc.EventID != "" {
			if err := s.webhookEventRepo.MarkProcessed(ctx, tx, pc.EventID, pc.EventType, pc.Provider); err != nil {
				return fmt.Errorf("mark webhook event: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent delivery of the same payment won the insert
		existing, ferr := s.orderRepo.FindByPaymentReference(ctx, nil, pc.PaymentReference)
		if ferr == nil {
			return &IntakeResult{Order: existing}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("order created from payment",
		zap.String("order_id", order.ID),
		zap.String("provider", pc.Provider),
		zap.String("payment_reference", pc.PaymentReference))
	return &IntakeResult{Order: order, Created: true}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
