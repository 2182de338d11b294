package stripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

const ledgerIDKey = "ledger_id"

// Gateway creates Stripe Checkout sessions for ledger records.
type Gateway struct {
	WebhookKey string
	SuccessURL string
	CancelURL  string

	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewGateway(secretKey, webhookKey, returnBaseURL string) *Gateway {
	stripe.Key = secretKey
	return &Gateway{
		WebhookKey: webhookKey,
		SuccessURL: returnBaseURL + "/payment/success",
		CancelURL:  returnBaseURL + "/payment/cancel",
		newSession: session.New,
	}
}

func (g *Gateway) CreatePreference(ctx context.Context, p *payment.Payment) (contracts.Preference, error) {
	name := p.Description
	if name == "" {
		name = "Pagamento"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(g.SuccessURL),
		CancelURL:          stripe.String(g.CancelURL),
		ClientReferenceID:  stripe.String(p.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyBRL)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
				UnitAmount: stripe.Int64(minorUnits(p.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata(ledgerIDKey, p.ID)
	params.SetIdempotencyKey("checkout-" + p.ID)

	sess, err := g.newSession(params)
	if err != nil {
		return contracts.Preference{}, fmt.Errorf("stripe checkout session for %s: %w", p.ID, err)
	}
	return contracts.Preference{ID: sess.ID, CheckoutURL: sess.URL}, nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// Notification is a verified Stripe event reduced to a ledger status change.
// Handled is false for event types that carry no status.
type Notification struct {
	EventID         string
	LedgerID        string
	PaymentIntentID string
	Status          payment.Status
	Handled         bool
}

func (g *Gateway) ParseWebhook(payload []byte, signature string) (Notification, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, g.WebhookKey, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Notification{}, err
	}

	var status payment.Status
	switch evt.Type {
	case "checkout.session.completed":
		status = payment.StatusPaid
	case "checkout.session.expired":
		status = payment.StatusFailed
	default:
		return Notification{EventID: evt.ID}, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &sess); err != nil {
		return Notification{}, fmt.Errorf("decode checkout session: %w", err)
	}

	ledgerID := sess.ClientReferenceID
	if ledgerID == "" {
		ledgerID = sess.Metadata[ledgerIDKey]
	}

	n := Notification{EventID: evt.ID, LedgerID: ledgerID, Status: status, Handled: true}
	if sess.PaymentIntent != nil {
		n.PaymentIntentID = sess.PaymentIntent.ID
	}
	return n, nil
}
