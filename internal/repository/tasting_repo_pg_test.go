package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTastingRepository(t *testing.T) {
	repo := NewTastingRepository(&pgxpool.Pool{})
	require.NotNil(t, repo)
	assert.IsType(t, &PGTastingRepository{}, repo)
}
