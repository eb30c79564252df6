package store

import (
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/require"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/nexthire?sslmode=disable", "pgx5://u:p@db:5432/nexthire?sslmode=disable"},
		{"postgresql://db/nexthire", "pgx5://db/nexthire"},
		{"pgx5://db/nexthire", "pgx5://db/nexthire"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, migrateURL(tt.in))
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	req := require.New(t)
	src, err := iofs.New(migrationFiles, "migrations")
	req.NoError(err)
	defer src.Close()

	first, err := src.First()
	req.NoError(err)
	req.Equal(uint(1), first)

	up, _, err := src.ReadUp(first)
	req.NoError(err)
	req.NoError(up.Close())
	down, _, err := src.ReadDown(first)
	req.NoError(err)
	req.NoError(down.Close())
}
