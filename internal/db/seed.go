package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type seedAuthor struct {
	name        string
	birthDate   string
	dateOfDeath string
}

type seedBook struct {
	isbn   string
	title  string
	year   int
	author int // index into seedAuthors
}

var seedAuthors = []seedAuthor{
	{"Jane Austen", "1775-12-16", "1817-07-18"},
	{"Charles Dickens", "1812-02-07", "1870-06-09"},
	{"Agatha Christie", "1890-09-15", "1976-01-12"},
	{"J.R.R. Tolkien", "1892-01-03", "1973-09-02"},
	{"George Orwell", "1903-06-25", "1950-01-21"},
	{"Virginia Woolf", "1882-01-25", "1941-03-28"},
	{"Leo Tolstoy", "1828-09-09", "1910-11-20"},
}

var seedBooks = []seedBook{
	{"9780141439518", "Pride and Prejudice", 1813, 0},
	{"9780141439624", "Oliver Twist", 1838, 1},
	{"9780007880318", "Murder on the Orient Express", 1934, 2},
	{"9780547928227", "The Hobbit", 1937, 3},
	{"9780451524935", "1984", 1949, 4},
	{"9780156027604", "Mrs. Dalloway", 1925, 5},
	{"9780140449174", "War and Peace", 1869, 6},
	{"9780743273565", "The Great Gatsby", 1925, 6},
	{"9780451526533", "Animal Farm", 1945, 4},
	{"9780061122415", "To Kill a Mockingbird", 1960, 0},
}

// Seed inserts the fixture catalog when the author table is empty.
// It reports whether anything was inserted.
func Seed(ctx context.Context, db *DB) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&Author{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count authors: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authors := make([]*Author, len(seedAuthors))
		for i, sa := range seedAuthors {
			birth, err := time.Parse(DateLayout, sa.birthDate)
			if err != nil {
				return err
			}
			death, err := time.Parse(DateLayout, sa.dateOfDeath)
			if err != nil {
				return err
			}
			authors[i] = &Author{Name: sa.name, BirthDate: birth, DateOfDeath: &death}
			if err := tx.Omit(clause.Associations).Create(authors[i]).Error; err != nil {
				return fmt.Errorf("failed to seed author %q: %w", sa.name, err)
			}
		}

		for _, sb := range seedBooks {
			book := &Book{
				ISBN:            sb.isbn,
				Title:           sb.title,
				PublicationYear: sb.year,
				AuthorID:        authors[sb.author].ID,
			}
			if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
				return fmt.Errorf("failed to seed book %q: %w", sb.title, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
