package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pagefun/app/internal/models"
	"pagefun/shared/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageRecord is the relational row for one page. The full page payload is
// kept as a JSONB document so the three backends round-trip identically;
// slug and wallet are lifted into columns for keying and the wallet index.
type PageRecord struct {
	Slug          string    `gorm:"primaryKey;size:50"`
	WalletAddress string    `gorm:"index;not null"`
	Data          string    `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (PageRecord) TableName() string {
	return "pages"
}

// GormStore is the relational backend (postgres in production).
type GormStore struct {
	db        *gorm.DB
	appLogger *logger.Logger
}

func NewGormStore(db *gorm.DB, appLogger *logger.Logger) *GormStore {
	return &GormStore{db: db, appLogger: appLogger}
}

func (gs *GormStore) Get(ctx context.Context, slug string) (*models.Page, error) {
	var rec PageRecord
	result := gs.db.WithContext(ctx).Where("slug = ?", slug).First(&rec)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("db get %s: %w", slug, result.Error)
	}
	var page models.Page
	if err := json.Unmarshal([]byte(rec.Data), &page); err != nil {
		return nil, fmt.Errorf("corrupt page record for %s: %w", slug, err)
	}
	return &page, nil
}

func (gs *GormStore) Put(ctx context.Context, page *models.Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page %s: %w", page.Slug, err)
	}
	rec := PageRecord{
		Slug:          page.Slug,
		WalletAddress: page.WalletAddress,
		Data:          string(raw),
	}
	result := gs.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"wallet_address", "data", "updated_at"}),
	}).Create(&rec)
	if result.Error != nil {
		return fmt.Errorf("db put %s: %w", page.Slug, result.Error)
	}
	return nil
}

func (gs *GormStore) Delete(ctx context.Context, slug string) error {
	result := gs.db.WithContext(ctx).Where("slug = ?", slug).Delete(&PageRecord{})
	if result.Error != nil {
		return fmt.Errorf("db delete %s: %w", slug, result.Error)
	}
	return nil
}

func (gs *GormStore) ListByWallet(ctx context.Context, walletAddress string) ([]models.PageSummary, error) {
	var recs []PageRecord
	result := gs.db.WithContext(ctx).
		Where("LOWER(wallet_address) = LOWER(?)", walletAddress).
		Order("slug").
		Find(&recs)
	if result.Error != nil {
		return nil, fmt.Errorf("db list by wallet: %w", result.Error)
	}
	summaries := make([]models.PageSummary, 0, len(recs))
	for _, rec := range recs {
		var page models.Page
		if err := json.Unmarshal([]byte(rec.Data), &page); err != nil {
			gs.appLogger.Warn("Skipping corrupt page record", "slug", rec.Slug, "error", err)
			continue
		}
		summaries = append(summaries, page.Summary())
	}
	return summaries, nil
}
