package migration

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add invoice due date", "add_invoice_due_date"},
		{"Add-Invoice-Index", "add_invoice_index"},
		{"add__vat__summary", "add_vat_summary"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestEmbeddedSchema(t *testing.T) {
	migrations, err := ListMigrations(Schema())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, uint(1), migrations[0].Version)
	assert.Equal(t, "create_billing_schema", migrations[0].Name)
	for _, m := range migrations {
		assert.True(t, m.HasDown, "migration %d has no rollback", m.Version)
	}
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":   {},
		"000001_init.up.sql":        {},
		"000001_init.down.sql":      {},
		"000010_late.up.sql":        {},
		"README.md":                 {},
		"notaversion_x.up.sql":      {},
		"000003_orphan.down.sql":    {},
		"nested/000004_skip.up.sql": {},
	}

	migrations, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 4)
	assert.Equal(t, []uint{1, 2, 3, 10}, []uint{migrations[0].Version, migrations[1].Version, migrations[2].Version, migrations[3].Version})
	assert.True(t, migrations[0].HasDown)
	assert.False(t, migrations[1].HasDown)
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := CreateMigration(dir, "Add invoice due date", "Store a due date per invoice", now)
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)
	assert.True(t, strings.HasSuffix(first.UpPath, "000001_add_invoice_due_date.up.sql"))

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_invoice_due_date")
	assert.Contains(t, string(up), "2024-03-01T12:00:00Z")
	assert.Contains(t, string(up), "Store a due date per invoice")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(rollback)")

	second, err := CreateMigration(dir, "index paid", "", now)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "", time.Now())
	assert.Error(t, err)
}
