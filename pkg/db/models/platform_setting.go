package models

import "time"

// PlatformSetting is a key/value row backing runtime-tunable platform
// parameters such as the deposit and platform-fee percentages.
type PlatformSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
