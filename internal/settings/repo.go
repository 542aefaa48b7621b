package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rmoralesdev/casaworks-backend/pkg/db/models"
)

// Repository reads and writes platform settings rows.
type Repository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.PlatformSetting
	err := r.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (r *repository) Set(ctx context.Context, key, value string) error {
	row := models.PlatformSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).Save(&row).Error
}
