// Package catalog stores catalog snapshots. A snapshot replaces the previous
// one inside a single transaction.
package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/notebooksync/internal/entities"
)

const insertBatchSize = 100

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveSnapshot replaces every stored item with items.
func (r *Repository) SaveSnapshot(ctx context.Context, items []entities.LibraryItem) error {
	records := make([]entities.CatalogItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toRecord(item))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&entities.AnnotationRecord{}).Error; err != nil {
			return err
		}
		if err := all.Delete(&entities.CatalogItemRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(&records, insertBatchSize).Error
	})
}

// LoadSnapshot returns the stored items in the order they were saved.
func (r *Repository) LoadSnapshot(ctx context.Context) ([]entities.LibraryItem, error) {
	var records []entities.CatalogItemRecord
	err := r.db.WithContext(ctx).
		Preload("Annotations", func(db *gorm.DB) *gorm.DB {
			return db.Order("ordinal ASC")
		}).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.LibraryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, fromRecord(rec))
	}
	return items, nil
}

// Count returns the number of stored items.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.CatalogItemRecord{}).Count(&n).Error
	return n, err
}

func toRecord(item entities.LibraryItem) entities.CatalogItemRecord {
	rec := entities.CatalogItemRecord{
		ItemID:         item.ID,
		Position:       item.Position,
		Title:          item.Title,
		Author:         item.Author,
		CoverURL:       item.CoverURL,
		NativeID:       item.NativeID,
		HighlightCount: item.HighlightCount,
		ScrapedAt:      item.ScrapedAt,
		Annotations:    make([]entities.AnnotationRecord, 0, len(item.Highlights)),
	}
	for i, a := range item.Highlights {
		rec.Annotations = append(rec.Annotations, entities.AnnotationRecord{
			Ordinal:  i,
			Text:     a.Text,
			Location: a.Location,
			Note:     a.Note,
		})
	}
	return rec
}

func fromRecord(rec entities.CatalogItemRecord) entities.LibraryItem {
	item := entities.LibraryItem{
		ID:        rec.ItemID,
		Title:     rec.Title,
		Author:    rec.Author,
		CoverURL:  rec.CoverURL,
		ScrapedAt: rec.ScrapedAt,
		NativeID:  rec.NativeID,
		Position:  rec.Position,
	}
	annotations := make([]entities.Annotation, 0, len(rec.Annotations))
	for _, a := range rec.Annotations {
		annotations = append(annotations, entities.Annotation{
			Text:     a.Text,
			Location: a.Location,
			Note:     a.Note,
		})
	}
	item.SetHighlights(annotations)
	return item
}
