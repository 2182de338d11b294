package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/application/contracts"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

const DefaultBaseURL = "https://api.mercadopago.com"

type Client struct {
	BaseURL        string
	AccessToken    string
	WebhookBaseURL string
	HTTP           *http.Client
}

func NewClient(baseURL, accessToken, webhookBaseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		AccessToken:    accessToken,
		WebhookBaseURL: strings.TrimRight(webhookBaseURL, "/"),
		HTTP:           &http.Client{Timeout: 5 * time.Second},
	}
}

type item struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type identification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type payer struct {
	Name           string         `json:"name"`
	Identification identification `json:"identification"`
}

type excludedType struct {
	ID string `json:"id"`
}

type paymentMethods struct {
	ExcludedPaymentTypes []excludedType `json:"excluded_payment_types"`
	Installments         int            `json:"installments"`
}

type preferenceRequest struct {
	Items             []item         `json:"items"`
	Payer             payer          `json:"payer"`
	PaymentMethods    paymentMethods `json:"payment_methods"`
	NotificationURL   string         `json:"notification_url,omitempty"`
	ExternalReference string         `json:"external_reference"`
	AutoReturn        string         `json:"auto_return"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// CreatePreference opens a checkout preference whose external reference is
// the ledger id, so webhooks can be routed back to the record.
func (c *Client) CreatePreference(ctx context.Context, p *payment.Payment) (contracts.Preference, error) {
	title := p.Description
	if title == "" {
		title = "Pagamento"
	}

	body := preferenceRequest{
		Items: []item{{
			ID:         p.ID,
			Title:      title,
			Quantity:   1,
			UnitPrice:  p.Amount.InexactFloat64(),
			CurrencyID: "BRL",
		}},
		Payer: payer{
			Name:           "Cliente",
			Identification: identification{Type: "CPF", Number: p.CustomerID},
		},
		PaymentMethods: paymentMethods{
			ExcludedPaymentTypes: []excludedType{{ID: "ticket"}, {ID: "bank_transfer"}},
			Installments:         12,
		},
		ExternalReference: p.ID,
		AutoReturn:        "approved",
	}
	if c.WebhookBaseURL != "" {
		body.NotificationURL = c.WebhookBaseURL + "/api/webhook/mercadopago"
	}

	var out preferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", p.ID, body, &out); err != nil {
		return contracts.Preference{}, fmt.Errorf("create preference for %s: %w", p.ID, err)
	}

	checkout := out.InitPoint
	if checkout == "" {
		checkout = out.SandboxInitPoint
	}
	return contracts.Preference{ID: out.ID, CheckoutURL: checkout}, nil
}

// PaymentInfo is the subset of a Mercado Pago payment the webhook needs.
type PaymentInfo struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

func (c *Client) PaymentInfo(ctx context.Context, id string) (PaymentInfo, error) {
	var out PaymentInfo
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, "", nil, &out); err != nil {
		return PaymentInfo{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return out, nil
}

// MapStatus translates a Mercado Pago payment status to a ledger status.
func MapStatus(s string) payment.Status {
	switch s {
	case "approved":
		return payment.StatusPaid
	case "rejected", "cancelled":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
