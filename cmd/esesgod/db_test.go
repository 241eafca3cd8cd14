package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigreer/esesgod/internal/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.New(filepath.Join(t.TempDir(), "esesgod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}
