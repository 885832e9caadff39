package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorFormToAuthor(t *testing.T) {
	author, err := authorForm{Name: "Mary Shelley", BirthDate: "1797-08-30", DateOfDeath: "1851-02-01"}.toAuthor()
	require.NoError(t, err)
	assert.Equal(t, "Mary Shelley", author.Name)
	assert.Equal(t, 1797, author.BirthDate.Year())
	require.NotNil(t, author.DateOfDeath)
	assert.Equal(t, 1851, author.DateOfDeath.Year())

	living, err := authorForm{Name: "Zadie Smith", BirthDate: "1975-10-25"}.toAuthor()
	require.NoError(t, err)
	assert.Nil(t, living.DateOfDeath)

	for _, bad := range []string{"1975-13-40", "1975-2-3", "25/10/1975", ""} {
		_, err := authorForm{Name: "x", BirthDate: bad}.toAuthor()
		assert.ErrorIs(t, err, errInvalidDate, bad)
	}
}

func TestAuthorFormValidate(t *testing.T) {
	assert.NoError(t, authorForm{Name: "Mary Shelley"}.Validate())
	assert.Error(t, authorForm{Name: ""}.Validate())
}

func TestBookFormToBook(t *testing.T) {
	book, err := bookForm{ISBN: "9780141439471", Title: "Frankenstein", PublicationYear: "1818", AuthorID: "3"}.toBook()
	require.NoError(t, err)
	assert.Equal(t, 1818, book.PublicationYear)
	assert.Equal(t, int64(3), book.AuthorID)

	_, err = bookForm{PublicationYear: "18th century", AuthorID: "3"}.toBook()
	assert.ErrorIs(t, err, errInvalidNumber)

	_, err = bookForm{PublicationYear: "1818", AuthorID: "three"}.toBook()
	assert.ErrorIs(t, err, errInvalidNumber)
}

func TestBookFormValidate(t *testing.T) {
	assert.NoError(t, bookForm{ISBN: "9780141439471", Title: "Frankenstein"}.Validate())
	assert.Error(t, bookForm{ISBN: "", Title: "Frankenstein"}.Validate())
	assert.Error(t, bookForm{ISBN: "978014143947100000000", Title: "Frankenstein"}.Validate())
}
