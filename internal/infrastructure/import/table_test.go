package csvimport

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	t.Run("reads headers rows and lines", func(t *testing.T) {
		csv := "Brand,ASIN,Title\nAcme,B1,Widget\n,,\nAcme,B2,Gadget\n"
		table, err := ReadTable("main.csv", strings.NewReader(csv))

		require.NoError(t, err)
		assert.Equal(t, "main.csv", table.Name)
		assert.Equal(t, []string{"Brand", "ASIN", "Title"}, table.Headers)
		assert.Equal(t, 2, table.Len())
		assert.Equal(t, []int{2, 4}, table.Lines)
		assert.Equal(t, "Gadget", table.Cell(1, "Title"))
		assert.Empty(t, table.Skipped)
	})

	t.Run("failures name the file", func(t *testing.T) {
		_, err := ReadTable("empty.csv", strings.NewReader(""))

		var fileErr *FileError
		require.True(t, errors.As(err, &fileErr))
		assert.Equal(t, "empty.csv", fileErr.File)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("oversized source", func(t *testing.T) {
		csv := "Brand,ASIN\n" + strings.Repeat("Acme,B1\n", 1000)
		_, err := ReadTable("big.csv", strings.NewReader(csv), WithMaxBytes(64))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("header only", func(t *testing.T) {
		table, err := ReadTable("cost.csv", strings.NewReader("Code,Cost\n"))
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
	})
}

func TestTableCell(t *testing.T) {
	table := NewTable("t", []string{"A", "B"}, [][]string{{"1", "2"}, {"3"}})

	assert.Equal(t, "2", table.Cell(0, "B"))
	assert.Equal(t, "", table.Cell(1, "B"), "short row")
	assert.Equal(t, "", table.Cell(0, "C"), "unknown header")
	assert.Equal(t, "", table.Cell(5, "A"), "out of range")
	assert.Equal(t, 3, table.Line(1))
	assert.Equal(t, 0, table.Line(9))
}
