package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesdash/internal/upstream"
)

func TestBuildSelectPage(t *testing.T) {
	stmt, args, err := buildSelect(upstream.Query{
		Collection: "invoices",
		Fields:     []string{"id", "invoice_date"},
		Filter: map[string]string{
			"filter[invoice_date][_lt]":              "2024-02-01",
			"filter[invoice_date][_gte]":             "2024-01-01",
			"filter[invoice_id][invoice_date][_gte]": "ignored",
		},
	}, 500, 1000)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT to_jsonb(t) FROM (SELECT "id", "invoice_date" FROM "invoices" src WHERE "invoice_date" >= $1 AND "invoice_date" < $2 ORDER BY 1, 2 LIMIT $3 OFFSET $4) t`,
		stmt)
	assert.Equal(t, []any{"2024-01-01", "2024-02-01", 500, 1000}, args)
}

func TestBuildSelectUnbounded(t *testing.T) {
	stmt, args, err := buildSelect(upstream.Query{Collection: "brands"}, -1, 0)
	require.NoError(t, err)

	assert.Equal(t, `SELECT to_jsonb(t) FROM (SELECT * FROM "brands" src ORDER BY src) t`, stmt)
	assert.Empty(t, args)
}

func TestBuildSelectOrdersOnEveryColumn(t *testing.T) {
	// invoice_id repeats across lines, so it cannot order pages on its own
	stmt, _, err := buildSelect(upstream.Query{
		Collection: "invoice_details",
		Fields:     []string{"invoice_id", "product_id", "total_amount", "quantity"},
	}, 500, 500)
	require.NoError(t, err)

	assert.Contains(t, stmt, " ORDER BY 1, 2, 3, 4 LIMIT $1 OFFSET $2)")
}

func TestBuildSelectRejectsUnsafeIdentifiers(t *testing.T) {
	_, _, err := buildSelect(upstream.Query{Collection: "invoices; drop table x"}, 10, 0)
	assert.Error(t, err)

	_, _, err = buildSelect(upstream.Query{Collection: "invoices", Fields: []string{`id"--`}}, 10, 0)
	assert.Error(t, err)
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{"": "postgres", "Postgres": "postgres", "pq": "postgres", " pgx ": "pgx"} {
		got, err := driverName(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := driverName("mysql")
	assert.Error(t, err)
}
