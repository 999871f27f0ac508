package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/upstream"
)

var (
	identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
	filterKey  = regexp.MustCompile(`^filter\[([a-z_][a-z0-9_]*)\]\[(_eq|_neq|_gt|_gte|_lt|_lte)\]$`)
)

var operators = map[string]string{
	"_eq":  "=",
	"_neq": "<>",
	"_gt":  ">",
	"_gte": ">=",
	"_lt":  "<",
	"_lte": "<=",
}

// ReaderConfig bounds collection reads.
type ReaderConfig struct {
	PageSize int
	MaxPages int
	Timeout  time.Duration // per query
}

// CollectionReader serves the provider's collections straight from its
// database. It satisfies upstream.Source and only ever reads.
type CollectionReader struct {
	db  *DB
	cfg ReaderConfig
}

func NewCollectionReader(db *DB, cfg ReaderConfig) *CollectionReader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 200
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CollectionReader{db: db, cfg: cfg}
}

func (r *CollectionReader) FetchAllPages(ctx context.Context, q upstream.Query) ([]json.RawMessage, error) {
	limit := q.PageSize
	if limit <= 0 {
		limit = r.cfg.PageSize
	}

	var rows []json.RawMessage
	for page := 0; page < r.cfg.MaxPages; page++ {
		batch, err := r.query(ctx, q, limit, page*limit)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
		if len(batch) < limit {
			return rows, nil
		}
	}

	log.Warn().
		Str("collection", q.Collection).
		Int("max_pages", r.cfg.MaxPages).
		Int("rows", len(rows)).
		Msg("postgres: page ceiling reached, result truncated")
	return rows, nil
}

func (r *CollectionReader) FetchAll(ctx context.Context, q upstream.Query) ([]json.RawMessage, error) {
	return r.query(ctx, q, -1, 0)
}

func (r *CollectionReader) query(ctx context.Context, q upstream.Query, limit, offset int) ([]json.RawMessage, error) {
	stmt, args, err := buildSelect(q, limit, offset)
	if err != nil {
		return nil, &upstream.FetchError{Collection: q.Collection, Attempts: 1, Err: err}
	}

	qctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	var out []json.RawMessage
	err = r.db.WithReadTx(qctx, func(tx *sqlx.Tx) error {
		var raw [][]byte
		if err := tx.SelectContext(qctx, &raw, stmt, args...); err != nil {
			return err
		}
		out = make([]json.RawMessage, len(raw))
		for i, b := range raw {
			out[i] = json.RawMessage(append([]byte(nil), b...))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", q.Collection, ctx.Err())
		}
		return nil, &upstream.FetchError{
			Collection: q.Collection,
			Attempts:   1,
			Timeout:    errors.Is(err, context.DeadlineExceeded),
			Err:        err,
		}
	}
	return out, nil
}

// buildSelect renders the page query. Identifiers are checked against a
// strict pattern and quoted; filter values are always bound parameters.
// Filters on nested relation paths are not supported and are skipped.
func buildSelect(q upstream.Query, limit, offset int) (string, []any, error) {
	if !identifier.MatchString(q.Collection) {
		return "", nil, fmt.Errorf("invalid collection name %q", q.Collection)
	}

	columns := "*"
	if len(q.Fields) > 0 {
		quoted := make([]string, 0, len(q.Fields))
		for _, f := range q.Fields {
			if !identifier.MatchString(f) {
				return "", nil, fmt.Errorf("invalid field name %q", f)
			}
			quoted = append(quoted, pq.QuoteIdentifier(f))
		}
		columns = strings.Join(quoted, ", ")
	}

	keys := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		where []string
		args  []any
	)
	for _, k := range keys {
		m := filterKey.FindStringSubmatch(k)
		if m == nil {
			log.Debug().Str("collection", q.Collection).Str("filter", k).Msg("postgres: unsupported filter skipped")
			continue
		}
		args = append(args, q.Filter[k])
		where = append(where, fmt.Sprintf("%s %s $%d", pq.QuoteIdentifier(m[1]), operators[m[2]], len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s src", columns, pq.QuoteIdentifier(q.Collection))
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY " + orderBy(len(q.Fields)))
	if limit >= 0 {
		args = append(args, limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
		args = append(args, offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}

	return "SELECT to_jsonb(t) FROM (" + b.String() + ") t", args, nil
}

// orderBy sorts on every projected column, or on the whole row for SELECT *,
// so rows with equal leading keys keep one order across pages.
func orderBy(columns int) string {
	if columns == 0 {
		return "src"
	}
	positions := make([]string, columns)
	for i := range positions {
		positions[i] = strconv.Itoa(i + 1)
	}
	return strings.Join(positions, ", ")
}

var _ upstream.Source = (*CollectionReader)(nil)
