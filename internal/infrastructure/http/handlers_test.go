package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appPayment "github.com/rcarvalho-pb/payment_workflow-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/mercadopago"
	"github.com/rcarvalho-pb/payment_workflow-go/internal/infrastructure/gateway/stripe"
)

type fakeService struct {
	createFn func(appPayment.CreateRequest) (*payment.Payment, error)
	getFn    func(string) (*payment.Payment, error)
	listFn   func(customerID, method string) ([]*payment.Payment, error)
	updateFn func(string, appPayment.UpdateRequest) (*payment.Payment, error)
	cancelFn func(string) error
	statusFn func(string) (string, error)
	applyFn  func(appPayment.GatewayNotification) (appPayment.NotificationResult, error)
}

func (f *fakeService) Create(_ context.Context, req appPayment.CreateRequest) (*payment.Payment, error) {
	return f.createFn(req)
}

func (f *fakeService) Get(_ context.Context, id string) (*payment.Payment, error) {
	return f.getFn(id)
}

func (f *fakeService) List(_ context.Context, customerID, method string) ([]*payment.Payment, error) {
	return f.listFn(customerID, method)
}

func (f *fakeService) Update(_ context.Context, id string, req appPayment.UpdateRequest) (*payment.Payment, error) {
	return f.updateFn(id, req)
}

func (f *fakeService) Cancel(_ context.Context, id string) error {
	return f.cancelFn(id)
}

func (f *fakeService) WorkflowStatus(_ context.Context, id string) (string, error) {
	return f.statusFn(id)
}

func (f *fakeService) ApplyGatewayStatus(_ context.Context, n appPayment.GatewayNotification) (appPayment.NotificationResult, error) {
	return f.applyFn(n)
}

type fakeMP struct {
	info mercadopago.PaymentInfo
	err  error
}

func (f *fakeMP) PaymentInfo(context.Context, string) (mercadopago.PaymentInfo, error) {
	return f.info, f.err
}

type fakeStripe struct {
	n   stripe.Notification
	err error
}

func (f *fakeStripe) ParseWebhook([]byte, string) (stripe.Notification, error) {
	return f.n, f.err
}

func samplePayment() *payment.Payment {
	now := time.Now()
	return &payment.Payment{
		ID:             "ledger-1",
		IdempotencyKey: "p1",
		CustomerID:     "52998224725",
		Amount:         decimal.RequireFromString("100.50"),
		Method:         payment.MethodCreditCard,
		Status:         payment.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func setupRouter(svc *fakeService, mp MercadoPagoAPI, st StripeWebhookParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	return NewRouter(RouterDeps{
		Payments: &PaymentHandler{Service: svc},
		Webhooks: &WebhookHandler{Service: svc, MercadoPago: mp, Stripe: st, Logger: logger},
		Metrics:  &metrics.Counters{},
		Logger:   logger,
	})
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePayment_Created(t *testing.T) {
	svc := &fakeService{createFn: func(req appPayment.CreateRequest) (*payment.Payment, error) {
		assert.Equal(t, "52998224725", req.CustomerID)
		assert.Equal(t, "CREDIT_CARD", req.Method)
		assert.True(t, decimal.RequireFromString("100.50").Equal(req.Amount))
		return samplePayment(), nil
	}}
	r := setupRouter(svc, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/payment", map[string]any{
		"cpf":           "52998224725",
		"amount":        100.50,
		"paymentMethod": "CREDIT_CARD",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ledger-1", resp.ID)
	assert.Equal(t, 100.5, resp.Amount)
	assert.Equal(t, "PENDING", resp.Status)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestCreatePayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{payment.ErrPixLimitExceeded, http.StatusBadRequest},
		{payment.ErrInvalidCustomerID, http.StatusBadRequest},
		{appPayment.ErrBridgeTimeout, http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		svc := &fakeService{createFn: func(appPayment.CreateRequest) (*payment.Payment, error) { return nil, tt.err }}
		r := setupRouter(svc, nil, nil)

		w := doJSON(r, http.MethodPost, "/api/payment", map[string]any{"cpf": "1", "amount": 1, "paymentMethod": "PIX"})
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func TestCreatePayment_InvalidBody(t *testing.T) {
	r := setupRouter(&fakeService{}, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/payment", map[string]any{"amount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPayment_NotFound(t *testing.T) {
	svc := &fakeService{getFn: func(id string) (*payment.Payment, error) {
		assert.Equal(t, "missing", id)
		return nil, payment.ErrPaymentNotFound
	}}
	r := setupRouter(svc, nil, nil)

	w := doJSON(r, http.MethodGet, "/api/payment/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"payment not found"}`, w.Body.String())
}

func TestListPayments_Filters(t *testing.T) {
	svc := &fakeService{listFn: func(customerID, method string) ([]*payment.Payment, error) {
		assert.Equal(t, "52998224725", customerID)
		assert.Equal(t, "CREDIT_CARD", method)
		return []*payment.Payment{samplePayment()}, nil
	}}
	r := setupRouter(svc, nil, nil)

	w := doJSON(r, http.MethodGet, "/api/payment?cpf=52998224725&paymentMethod=CREDIT_CARD", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp []paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
}

func TestUpdatePayment_Conflict(t *testing.T) {
	svc := &fakeService{updateFn: func(id string, req appPayment.UpdateRequest) (*payment.Payment, error) {
		require.NotNil(t, req.Status)
		assert.Equal(t, "PENDING", *req.Status)
		return nil, payment.ErrStatusFinal
	}}
	r := setupRouter(svc, nil, nil)

	w := doJSON(r, http.MethodPut, "/api/payment/ledger-1", map[string]any{"status": "PENDING"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelAndWorkflowStatus(t *testing.T) {
	svc := &fakeService{
		cancelFn: func(id string) error { return nil },
		statusFn: func(id string) (string, error) { return "PAID", nil },
	}
	r := setupRouter(svc, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/payment/ledger-1/cancel", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(r, http.MethodGet, "/api/payment/ledger-1/workflow-status", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"PAID"}`, w.Body.String())
}

func TestMercadoPagoWebhook(t *testing.T) {
	var got appPayment.GatewayNotification
	svc := &fakeService{applyFn: func(n appPayment.GatewayNotification) (appPayment.NotificationResult, error) {
		got = n
		return appPayment.ResultApplied, nil
	}}

	mp := &fakeMP{info: mercadopago.PaymentInfo{ID: 987, Status: "approved", ExternalReference: "ledger-1"}}
	r := setupRouter(svc, mp, nil)

	body := map[string]any{"type": "payment", "data": map[string]any{"id": "987"}}
	w := doJSON(r, http.MethodPost, "/api/webhook/mercadopago", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"processed","result":"applied"}`, w.Body.String())
	assert.Equal(t, "ledger-1", got.LedgerID)
	assert.Equal(t, payment.StatusPaid, got.Status)
	assert.Equal(t, "987:approved", got.NotificationID)
	assert.Equal(t, "987", got.GatewayPaymentID)
}

func TestMercadoPagoWebhook_IgnoredAndNoReference(t *testing.T) {
	r := setupRouter(&fakeService{}, &fakeMP{info: mercadopago.PaymentInfo{Status: "approved"}}, nil)

	w := doJSON(r, http.MethodPost, "/api/webhook/mercadopago", map[string]any{"type": "merchant_order"})
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/webhook/mercadopago", map[string]any{"type": "payment", "data": map[string]any{"id": "1"}})
	assert.JSONEq(t, `{"status":"no_reference"}`, w.Body.String())
}

func TestStripeWebhook(t *testing.T) {
	svc := &fakeService{applyFn: func(n appPayment.GatewayNotification) (appPayment.NotificationResult, error) {
		assert.Equal(t, "stripe", n.Source)
		assert.Equal(t, payment.StatusFailed, n.Status)
		return appPayment.ResultAlreadyFinal, nil
	}}
	st := &fakeStripe{n: stripe.Notification{EventID: "evt_1", LedgerID: "ledger-1", Status: payment.StatusFailed, Handled: true}}
	r := setupRouter(svc, nil, st)

	w := doJSON(r, http.MethodPost, "/api/webhook/stripe", map[string]any{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"received","result":"already_final"}`, w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeService{getFn: func(string) (*payment.Payment, error) { return samplePayment(), nil }}
	r := NewRouter(RouterDeps{
		Payments: &PaymentHandler{Service: svc},
		Metrics:  &metrics.Counters{},
		Logger:   zap.NewNop(),
		Limiter:  NewRateLimiter(rate.Every(time.Hour), 1),
	})

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/payment/ledger-1", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(r, http.MethodGet, "/api/payment/ledger-1", nil).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(&fakeService{}, nil, nil)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/healthz", nil).Code)

	w := doJSON(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "payments_paid")
}
