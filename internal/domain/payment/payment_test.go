package payment_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  payment.Method
		amount  string
		wantErr error
	}{
		{name: "credit_card", method: payment.MethodCreditCard, amount: "100.50"},
		{name: "credit_card_above_pix_limit", method: payment.MethodCreditCard, amount: "50000"},
		{name: "pix_at_limit", method: payment.MethodPix, amount: "20000"},
		{name: "pix_above_limit", method: payment.MethodPix, amount: "20000.01", wantErr: payment.ErrPixLimitExceeded},
		{name: "zero", method: payment.MethodPix, amount: "0", wantErr: payment.ErrInvalidAmount},
		{name: "negative", method: payment.MethodCreditCard, amount: "-1", wantErr: payment.ErrInvalidAmount},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := payment.ValidateAmount(tt.method, decimal.RequireFromString(tt.amount))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNew_StartsPending(t *testing.T) {
	p, err := payment.New("p1", "12345678901", "", decimal.RequireFromString("100.50"), payment.MethodCreditCard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status != payment.StatusPending {
		t.Fatalf("expected PENDING, got %s", p.Status)
	}
}

func TestNew_RejectsUnknownMethod(t *testing.T) {
	_, err := payment.New("p1", "12345678901", "", decimal.NewFromInt(1), payment.Method("BOLETO"))
	if !errors.Is(err, payment.ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestTransition_IsMonotonic(t *testing.T) {
	p := &payment.Payment{Status: payment.StatusPending}

	if err := p.Transition(payment.StatusPaid); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Transition(payment.StatusPaid); err != nil {
		t.Fatalf("repeating the same status should be a no-op, got %v", err)
	}
	if err := p.Transition(payment.StatusFailed); !errors.Is(err, payment.ErrStatusFinal) {
		t.Fatalf("expected ErrStatusFinal, got %v", err)
	}
	if err := p.Transition(payment.StatusPending); !errors.Is(err, payment.ErrStatusFinal) {
		t.Fatalf("expected ErrStatusFinal, got %v", err)
	}
	if p.Status != payment.StatusPaid {
		t.Fatalf("expected PAID to stick, got %s", p.Status)
	}
}

func TestApply_RejectsPixAmountAboveLimit(t *testing.T) {
	p := &payment.Payment{Method: payment.MethodPix, Status: payment.StatusPending, Amount: decimal.NewFromInt(10)}
	amount := decimal.RequireFromString("20000.01")
	paid := payment.StatusPaid

	err := p.Apply(payment.Update{Amount: &amount, Status: &paid})
	if !errors.Is(err, payment.ErrPixLimitExceeded) {
		t.Fatalf("expected ErrPixLimitExceeded, got %v", err)
	}
	if p.Status != payment.StatusPending || !p.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("payment must be untouched on a rejected update")
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := payment.ParseStatus("PAID"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := payment.ParseStatus("paid"); !errors.Is(err, payment.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestNormalizeCustomerID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cpf   string
		valid bool
	}{
		{cpf: "52998224725", valid: true},
		{cpf: "12345678909", valid: true},
		{cpf: "12345678901", valid: false},
		{cpf: "11111111111", valid: false},
		{cpf: "5299822472", valid: false},
		{cpf: "529982247a5", valid: false},
		{cpf: "529.982.247-25", valid: true},
		{cpf: " 123.456.789-09", valid: true},
		{cpf: "529.982.247-26", valid: false},
		{cpf: "529/982/247-25", valid: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.cpf, func(t *testing.T) {
			t.Parallel()

			bare, err := payment.NormalizeCustomerID(tt.cpf)
			if tt.valid && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if tt.valid && len(bare) != 11 {
				t.Fatalf("expected 11 bare digits, got %q", bare)
			}
			if !tt.valid && !errors.Is(err, payment.ErrInvalidCustomerID) {
				t.Fatalf("expected ErrInvalidCustomerID, got %v", err)
			}
		})
	}
}
