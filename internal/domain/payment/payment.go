package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAIL"
)

type Method string

const (
	MethodPix        Method = "PIX"
	MethodCreditCard Method = "CREDIT_CARD"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrPixLimitExceeded   = errors.New("PIX payments cannot exceed 20000")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrInvalidStatus      = errors.New("invalid payment status")
	ErrStatusFinal        = errors.New("payment status is already final")
	ErrMethodImmutable    = errors.New("payment method cannot be changed")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrMissingIdempotency = errors.New("idempotency key is required")
	ErrMissingCustomer    = errors.New("customer id is required")
)

// PixLimit is the largest amount accepted for a single PIX payment.
var PixLimit = decimal.NewFromInt(20000)

type Payment struct {
	ID               string
	IdempotencyKey   string
	CustomerID       string
	Description      string
	Amount           decimal.Decimal
	Method           Method
	Status           Status
	GatewayReference string
	// GatewayPaymentID is the gateway's id for the captured payment, set by
	// its webhook.
	GatewayPaymentID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodPix, MethodCreditCard:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
}

func (s Status) IsFinal() bool {
	return s == StatusPaid || s == StatusFailed
}

// ValidateAmount checks the amount rules for the given method.
func ValidateAmount(method Method, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if method == MethodPix && amount.GreaterThan(PixLimit) {
		return ErrPixLimitExceeded
	}
	return nil
}

// New builds a PENDING payment after checking the ledger invariants. Tax id
// checksum validation belongs to the request edge, see ValidateCustomerID.
func New(idempotencyKey, customerID, description string, amount decimal.Decimal, method Method) (*Payment, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotency
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, ErrMissingCustomer
	}
	if err := ValidateAmount(method, amount); err != nil {
		return nil, err
	}

	return &Payment{
		IdempotencyKey: idempotencyKey,
		CustomerID:     customerID,
		Description:    description,
		Amount:         amount,
		Method:         method,
		Status:         StatusPending,
	}, nil
}

// Transition moves the payment to next. Only PENDING -> PAID|FAIL is allowed;
// writing the current status again is a no-op.
func (p *Payment) Transition(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if p.Status == next {
		return nil
	}
	if p.Status.IsFinal() {
		return fmt.Errorf("%w: %s -> %s", ErrStatusFinal, p.Status, next)
	}
	p.Status = next
	return nil
}

// Update is a partial change to a stored payment. Nil fields are left untouched.
type Update struct {
	Description      *string
	Amount           *decimal.Decimal
	Status           *Status
	GatewayReference *string
	GatewayPaymentID *string
}

// Apply validates and applies u to p.
func (p *Payment) Apply(u Update) error {
	if u.Amount != nil {
		if err := ValidateAmount(p.Method, *u.Amount); err != nil {
			return err
		}
	}
	if u.Status != nil {
		if err := p.Transition(*u.Status); err != nil {
			return err
		}
	}
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.GatewayReference != nil {
		p.GatewayReference = *u.GatewayReference
	}
	if u.GatewayPaymentID != nil {
		p.GatewayPaymentID = *u.GatewayPaymentID
	}
	return nil
}
