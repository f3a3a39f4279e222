package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSalesTotalColumnIsBigint(t *testing.T) {
	// The total is price_cents times the seat count, computed as int64 on
	// the Go side; the column must hold the full range.
	assert.True(t, strings.Contains(createSalesTable, "total_cents BIGINT"))
}

func TestSeatStatusesMatchSchemaCheck(t *testing.T) {
	assert.Contains(t, createSeatsTable, "'AVAILABLE', 'RESERVED', 'SOLD'")
	assert.Contains(t, createReservationsTable, "'PENDING', 'CONFIRMED', 'EXPIRED'")
}
