package db

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on forms and in events.
const DateLayout = "2006-01-02"

// Author represents an author in the library database
type Author struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"type:varchar(255);not null;index:idx_author_name" json:"name"`
	BirthDate   time.Time  `gorm:"type:date;not null" json:"birth_date"`
	DateOfDeath *time.Time `gorm:"type:date" json:"date_of_death,omitempty"`
	Books       []Book     `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
}

// TableName specifies the table name for Author model
func (Author) TableName() string {
	return "author"
}

func (a Author) String() string {
	return fmt.Sprintf("%s (Born: %s)", a.Name, a.BirthDate.Format(DateLayout))
}

// Book represents a book in the library database
type Book struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ISBN            string `gorm:"column:isbn;type:varchar(20);not null;uniqueIndex:idx_book_isbn" json:"isbn"`
	Title           string `gorm:"type:varchar(255);not null" json:"title"`
	PublicationYear int    `gorm:"not null" json:"publication_year"`
	AuthorID        int64  `gorm:"not null;index:idx_book_author_id" json:"author_id"`
	Author          Author `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"author"`
}

// TableName specifies the table name for Book model
func (Book) TableName() string {
	return "book"
}

func (b Book) String() string {
	return fmt.Sprintf("%s (%d) by %s", b.Title, b.PublicationYear, b.Author.Name)
}
