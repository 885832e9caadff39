package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benjikir/Book-Alchemy/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrBookNotFound is returned when a book is not found
	ErrBookNotFound = errors.New("book not found")

	// ErrAuthorNotFound is returned when a book references a missing author
	ErrAuthorNotFound = errors.New("author not found")

	// ErrDuplicateISBN is returned when a book with the same ISBN exists
	ErrDuplicateISBN = errors.New("isbn already exists")
)

// SortKey selects the ordering of ListBooks.
type SortKey string

const (
	SortByTitle  SortKey = "title"
	SortByAuthor SortKey = "author"
)

// ParseSortKey maps the sort_by parameter to a SortKey. Unknown or empty
// values sort by title.
func ParseSortKey(s string) SortKey {
	if SortKey(s) == SortByAuthor {
		return SortByAuthor
	}
	return SortByTitle
}

// BookFilter narrows and orders ListBooks.
type BookFilter struct {
	SearchTerm string // case-insensitive title substring; empty matches all
	SortBy     SortKey
}

// DeleteResult describes what DeleteBookAndMaybeAuthor removed.
type DeleteResult struct {
	Book          db.Book
	AuthorDeleted bool
}

// LibraryRepository handles author and book persistence
type LibraryRepository struct {
	db  *db.DB
	log *zap.Logger
}

// NewLibraryRepository creates a new library repository
func NewLibraryRepository(database *db.DB, logger *zap.Logger) *LibraryRepository {
	return &LibraryRepository{
		db:  database,
		log: logger,
	}
}

// ListBooks returns books joined with their author, filtered and sorted
// per filter. Ties are broken by book id so insertion order is stable.
func (r *LibraryRepository) ListBooks(ctx context.Context, filter BookFilter) ([]*db.Book, error) {
	query := r.db.WithContext(ctx).Model(&db.Book{}).Joins("Author")

	if filter.SearchTerm != "" {
		query = query.Where(`LOWER(book.title) LIKE LOWER(?) ESCAPE '\'`, "%"+escapeLike(filter.SearchTerm)+"%")
	}

	switch filter.SortBy {
	case SortByAuthor:
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: "Author", Name: "name"}})
	default:
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "title"}})
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}})

	var books []*db.Book
	if err := query.Find(&books).Error; err != nil {
		r.log.Error("Failed to list books",
			zap.String("search_term", filter.SearchTerm),
			zap.String("sort_by", string(filter.SortBy)),
			zap.Error(err),
		)
		return nil, err
	}

	return books, nil
}

// ListAuthors returns all authors ordered by name
func (r *LibraryRepository) ListAuthors(ctx context.Context) ([]*db.Author, error) {
	var authors []*db.Author
	if err := r.db.WithContext(ctx).Order("name").Order("id").Find(&authors).Error; err != nil {
		r.log.Error("Failed to list authors", zap.Error(err))
		return nil, err
	}
	return authors, nil
}

// GetBook retrieves a book and its author by id
func (r *LibraryRepository) GetBook(ctx context.Context, id int64) (*db.Book, error) {
	var book db.Book
	err := r.db.WithContext(ctx).Joins("Author").Where("book.id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		r.log.Error("Failed to get book", zap.Int64("book_id", id), zap.Error(err))
		return nil, err
	}

	return &book, nil
}

// CreateAuthor persists a new author
func (r *LibraryRepository) CreateAuthor(ctx context.Context, author *db.Author) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(author).Error
	})
	if err != nil {
		r.log.Error("Failed to create author", zap.String("name", author.Name), zap.Error(err))
		return err
	}

	r.log.Info("Author created", zap.Int64("author_id", author.ID), zap.String("name", author.Name))
	return nil
}

// CreateBook persists a new book. The author must exist and the ISBN must
// be unused; both are checked in the same transaction as the insert.
func (r *LibraryRepository) CreateBook(ctx context.Context, book *db.Book) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var authors int64
		if err := tx.Model(&db.Author{}).Where("id = ?", book.AuthorID).Count(&authors).Error; err != nil {
			return fmt.Errorf("failed to check author: %w", err)
		}
		if authors == 0 {
			return fmt.Errorf("%w (id %d)", ErrAuthorNotFound, book.AuthorID)
		}

		var existing int64
		if err := tx.Model(&db.Book{}).Where("isbn = ?", book.ISBN).Count(&existing).Error; err != nil {
			return fmt.Errorf("failed to check isbn: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateISBN, book.ISBN)
		}

		if err := tx.Omit(clause.Associations).Create(book).Error; err != nil {
			return translateWriteError(err, book)
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to create book",
			zap.String("isbn", book.ISBN),
			zap.Int64("author_id", book.AuthorID),
			zap.Error(err),
		)
		return err
	}

	r.log.Info("Book created",
		zap.Int64("book_id", book.ID),
		zap.String("isbn", book.ISBN),
		zap.String("title", book.Title),
	)
	return nil
}

// DeleteBookAndMaybeAuthor deletes a book and, when that leaves its
// author without books, the author too. Both deletes share one
// transaction: if either fails nothing is removed.
func (r *LibraryRepository) DeleteBookAndMaybeAuthor(ctx context.Context, id int64) (*DeleteResult, error) {
	var result DeleteResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book db.Book
		if err := tx.First(&book, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("failed to load book: %w", err)
		}

		if err := tx.Delete(&db.Book{}, book.ID).Error; err != nil {
			return fmt.Errorf("failed to delete book: %w", err)
		}

		var remaining int64
		if err := tx.Model(&db.Book{}).Where("author_id = ?", book.AuthorID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining books: %w", err)
		}

		if remaining == 0 {
			res := tx.Delete(&db.Author{}, book.AuthorID)
			if res.Error != nil {
				return fmt.Errorf("failed to delete author: %w", res.Error)
			}
			result.AuthorDeleted = res.RowsAffected > 0
		}

		result.Book = book
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrBookNotFound) {
			r.log.Error("Failed to delete book", zap.Int64("book_id", id), zap.Error(err))
		}
		return nil, err
	}

	r.log.Info("Book deleted",
		zap.Int64("book_id", id),
		zap.Int64("author_id", result.Book.AuthorID),
		zap.Bool("author_deleted", result.AuthorDeleted),
	)
	return &result, nil
}

// GetStats returns catalog counts for metrics
func (r *LibraryRepository) GetStats(ctx context.Context) (books, authors int64, err error) {
	if err := r.db.WithContext(ctx).Model(&db.Book{}).Count(&books).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count books: %w", err)
	}

	if err := r.db.WithContext(ctx).Model(&db.Author{}).Count(&authors).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	return books, authors, nil
}

// translateWriteError maps constraint violations the pre-checks could not
// see (a concurrent insert) onto the repository's sentinel errors.
func translateWriteError(err error, book *db.Book) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s", ErrDuplicateISBN, book.ISBN)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w (id %d)", ErrAuthorNotFound, book.AuthorID)
	default:
		return err
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
