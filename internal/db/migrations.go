package db

import (
	"gorm.io/gorm"
)

// RunMigrations runs all database migrations
func RunMigrations(db *DB) error {
	// Author first so the book foreign key has a target.
	if err := db.AutoMigrate(&Author{}, &Book{}); err != nil {
		return err
	}

	if err := createIndexes(db.DB); err != nil {
		return err
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Case-insensitive title search
		`CREATE INDEX IF NOT EXISTS idx_book_title_lower ON book (LOWER(title))`,
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			return err
		}
	}

	return nil
}
