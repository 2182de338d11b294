package outbox

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/rcarvalho-pb/payment_workflow-go/internal/domain/event"
)

type outboxRecord struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventType string    `gorm:"type:varchar(64);not null"`
	Payload   []byte    `gorm:"type:bytea;not null"`
	Published bool      `gorm:"not null;default:false;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (outboxRecord) TableName() string { return "outbox_events" }

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&outboxRecord{})
}

func (r *GormRepository) Save(ctx context.Context, evt OutboxEvent) error {
	return r.db.WithContext(ctx).Create(&outboxRecord{
		ID:        evt.ID,
		EventType: string(evt.Type),
		Payload:   evt.Payload,
		Published: false,
		CreatedAt: evt.CreatedAt,
	}).Error
}

func (r *GormRepository) FindUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	var records []outboxRecord
	err := r.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	events := make([]OutboxEvent, 0, len(records))
	for _, rec := range records {
		events = append(events, OutboxEvent{
			ID:        rec.ID,
			Type:      event.Type(rec.EventType),
			Payload:   rec.Payload,
			Published: rec.Published,
			CreatedAt: rec.CreatedAt,
		})
	}
	return events, nil
}

func (r *GormRepository) MarkPublished(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id = ?", id).
		Update("published", true).Error
}
