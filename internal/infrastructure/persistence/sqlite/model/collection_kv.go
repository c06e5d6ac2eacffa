package model

// CollectionKV holds one serialized entity collection per row, keyed by
// collection name.
type CollectionKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (CollectionKV) TableName() string {
	return "collections"
}
