package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/ntfy"
	"github.com/coregx/ntfy/model"
	"github.com/coregx/relica"
)

// WatermarkRepository implements ntfy.WatermarkStore using Relica.
type WatermarkRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewWatermarkRepository creates a new WatermarkRepository with default table prefix.
func NewWatermarkRepository(sqlDB *sql.DB, driverName string) *WatermarkRepository {
	return &WatermarkRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: DefaultTablePrefix}
}

// NewWatermarkRepositoryWithPrefix creates a new WatermarkRepository with custom table prefix.
func NewWatermarkRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *WatermarkRepository {
	return &WatermarkRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *WatermarkRepository) tableName() string {
	return r.tablePrefix + "watermark"
}

// Load retrieves the watermark stored under key.
func (r *WatermarkRepository) Load(ctx context.Context, key string) (model.Watermark, error) {
	var wm model.Watermark
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("subscription_key = ?", key).One(&wm)
	if errors.Is(err, sql.ErrNoRows) {
		return wm, ntfy.ErrNoData
	}
	if err != nil {
		return wm, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to load watermark", err)
	}
	return wm, nil
}

// Save creates or updates a watermark. A new watermark for a key that is
// already stored updates the existing row.
func (r *WatermarkRepository) Save(ctx context.Context, w model.Watermark) (model.Watermark, error) {
	if w.ID == 0 {
		existing, err := r.Load(ctx, w.SubscriptionKey)
		switch {
		case err == nil:
			w.ID = existing.ID
		case !ntfy.IsNoData(err):
			return w, err
		default:
			err := r.db.WithContext(ctx).Model(&w).Table(r.tableName()).Insert()
			if err != nil {
				return w, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to insert watermark", err)
			}
			return w, nil
		}
	}

	err := r.db.WithContext(ctx).Model(&w).Table(r.tableName()).Update()
	if err != nil {
		return w, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to update watermark", err)
	}
	return w, nil
}

// Delete removes the watermark stored under key.
func (r *WatermarkRepository) Delete(ctx context.Context, key string) error {
	wm, err := r.Load(ctx, key)
	if ntfy.IsNoData(err) {
		return nil
	}
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Model(&wm).Table(r.tableName()).Delete()
	if err != nil {
		return ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to delete watermark", err)
	}
	return nil
}

// List returns all stored watermarks ordered by key.
func (r *WatermarkRepository) List(ctx context.Context) ([]model.Watermark, error) {
	var wms []model.Watermark
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		OrderBy("subscription_key ASC").
		All(&wms)
	if err != nil {
		return nil, ntfy.NewErrorWithCause(ntfy.ErrCodeDatabase, "failed to list watermarks", err)
	}
	return wms, nil
}
