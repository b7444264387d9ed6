package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreAnnotated(t *testing.T) {
	entries, err := fs.ReadDir(files, dir)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2)

	for _, entry := range entries {
		data, err := fs.ReadFile(files, dir+"/"+entry.Name())
		require.NoError(t, err)
		body := string(data)
		require.True(t, strings.Contains(body, "-- +goose Up"), entry.Name())
		require.True(t, strings.Contains(body, "-- +goose Down"), entry.Name())
	}
}
