package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

const paymentColumns = `id, idempotency_key, customer_id, description, amount,
	payment_method, status, gateway_reference, gateway_payment_id, created_at, updated_at`

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, bool, error) {
	stored := *p
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO payments (`+paymentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.ID,
		stored.IdempotencyKey,
		stored.CustomerID,
		stored.Description,
		stored.Amount.String(),
		string(stored.Method),
		string(stored.Status),
		stored.GatewayReference,
		stored.GatewayPaymentID,
		stored.CreatedAt,
		stored.UpdatedAt,
	)
	if err != nil {
		return nil, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	// 0 rows = idempotency hit
	if affected == 0 {
		existing, err := r.FindByIdempotencyKey(ctx, stored.IdempotencyKey)
		return existing, false, err
	}

	return &stored, true, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		id,
	)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = ?`,
		key,
	)
	return scanPayment(row)
}

func (r *PaymentRepository) FindAll(ctx context.Context, f payment.Filter) ([]*payment.Payment, error) {
	var (
		where []string
		args  []any
	)
	if f.CustomerID != "" {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.Method != "" {
		where = append(where, "payment_method = ?")
		args = append(args, string(f.Method))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

func (r *PaymentRepository) Update(ctx context.Context, id string, u payment.Update) (*payment.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := scanPayment(tx.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		id,
	))
	if err != nil {
		return nil, err
	}

	if err := p.Apply(u); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`UPDATE payments
		 SET description = ?, amount = ?, status = ?, gateway_reference = ?,
		     gateway_payment_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.Description,
		p.Amount.String(),
		string(p.Status),
		p.GatewayReference,
		p.GatewayPaymentID,
		p.UpdatedAt,
		p.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPayment(row scanner) (*payment.Payment, error) {
	var (
		p      payment.Payment
		amount string
		method string
		status string
	)

	if err := row.Scan(
		&p.ID,
		&p.IdempotencyKey,
		&p.CustomerID,
		&p.Description,
		&amount,
		&method,
		&status,
		&p.GatewayReference,
		&p.GatewayPaymentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}

	var err error
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if p.Method, err = payment.ParseMethod(method); err != nil {
		return nil, err
	}
	if p.Status, err = payment.ParseStatus(status); err != nil {
		return nil, err
	}

	return &p, nil
}
