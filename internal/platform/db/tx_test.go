package db

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestNewTransactorDefaultsToRepeatableRead(t *testing.T) {
	assert.Equal(t, pgx.RepeatableRead, NewTransactor(nil).IsoLevel())
}

func TestNewTransactorAppliesIsoLevel(t *testing.T) {
	assert.Equal(t, pgx.ReadCommitted, NewTransactor(nil, WithIsoLevel(pgx.ReadCommitted)).IsoLevel())
}
