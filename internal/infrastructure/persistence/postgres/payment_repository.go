package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/payment"
)

type paymentModel struct {
	ID               string          `gorm:"type:varchar(36);primaryKey"`
	IdempotencyKey   string          `gorm:"type:varchar(128);uniqueIndex;not null"`
	CustomerID       string          `gorm:"type:varchar(11);index:idx_payments_customer;not null"`
	Description      string          `gorm:"type:text"`
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	PaymentMethod    string          `gorm:"type:varchar(20);index:idx_payments_customer;not null"`
	Status           string          `gorm:"type:varchar(20);not null"`
	GatewayReference string          `gorm:"type:varchar(255)"`
	GatewayPaymentID string          `gorm:"type:varchar(255)"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (paymentModel) TableName() string { return "payments" }

func toModel(p *payment.Payment) paymentModel {
	return paymentModel{
		ID:               p.ID,
		IdempotencyKey:   p.IdempotencyKey,
		CustomerID:       p.CustomerID,
		Description:      p.Description,
		Amount:           p.Amount,
		PaymentMethod:    string(p.Method),
		Status:           string(p.Status),
		GatewayReference: p.GatewayReference,
		GatewayPaymentID: p.GatewayPaymentID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (m paymentModel) toDomain() (*payment.Payment, error) {
	method, err := payment.ParseMethod(m.PaymentMethod)
	if err != nil {
		return nil, err
	}
	status, err := payment.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return &payment.Payment{
		ID:               m.ID,
		IdempotencyKey:   m.IdempotencyKey,
		CustomerID:       m.CustomerID,
		Description:      m.Description,
		Amount:           m.Amount,
		Method:           method,
		Status:           status,
		GatewayReference: m.GatewayReference,
		GatewayPaymentID: m.GatewayPaymentID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}, nil
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) payment.Repository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Create(ctx context.Context, p *payment.Payment) (*payment.Payment, bool, error) {
	m := toModel(p)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "idempotency_key"}}, DoNothing: true}).
		Create(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}

	if res.RowsAffected == 0 {
		existing, err := r.FindByIdempotencyKey(ctx, p.IdempotencyKey)
		return existing, false, err
	}

	stored, err := m.toDomain()
	return stored, true, err
}

func (r *gormPaymentRepo) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

func (r *gormPaymentRepo) FindByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	return r.first(r.db.WithContext(ctx), "idempotency_key = ?", key)
}

func (r *gormPaymentRepo) FindAll(ctx context.Context, f payment.Filter) ([]*payment.Payment, error) {
	q := r.db.WithContext(ctx).Model(&paymentModel{})
	if f.CustomerID != "" {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.Method != "" {
		q = q.Where("payment_method = ?", string(f.Method))
	}

	var models []paymentModel
	if err := q.Order("created_at desc").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*payment.Payment, 0, len(models))
	for _, m := range models {
		p, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *gormPaymentRepo) Update(ctx context.Context, id string, u payment.Update) (*payment.Payment, error) {
	var updated *payment.Payment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.first(tx.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
		if err != nil {
			return err
		}

		if err := p.Apply(u); err != nil {
			return err
		}
		p.UpdatedAt = time.Now().UTC()

		if err := tx.Model(&paymentModel{}).Where("id = ?", id).Updates(map[string]interface{}{
			"description":        p.Description,
			"amount":             p.Amount,
			"status":             string(p.Status),
			"gateway_reference":  p.GatewayReference,
			"gateway_payment_id": p.GatewayPaymentID,
			"updated_at":         p.UpdatedAt,
		}).Error; err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *gormPaymentRepo) first(db *gorm.DB, query string, args ...any) (*payment.Payment, error) {
	var m paymentModel
	if err := db.Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return m.toDomain()
}
