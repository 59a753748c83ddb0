package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/dotsql"
	"github.com/rs/zerolog/log"

	"storefront-banners/internal/banner"
)

//go:embed queries/*.sql
var queriesFS embed.FS

const (
	queryTimeout = 5 * time.Second

	pgUniqueViolation = "23505"
)

// SQLStore persists banners in sqlite or postgres. Structured fields are
// stored as JSON documents; counters are plain integer columns updated with
// single-statement atomic adds.
type SQLStore struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
	now func() time.Time
	// timeout bounds every statement, including writes detached from the
	// request context.
	timeout time.Duration
	// closer releases the connection (and pgx pool) when the store owns it.
	closer func() error
}

type bannerRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Kind           string         `db:"kind"`
	Layout         string         `db:"layout"`
	Active         bool           `db:"active"`
	Priority       int            `db:"priority"`
	DisplayOn      string         `db:"display_on"`
	Background     string         `db:"background"`
	Elements       string         `db:"elements"`
	ContainerStyle sql.NullString `db:"container_style"`
	Animation      sql.NullString `db:"animation"`
	DisplayRules   sql.NullString `db:"display_rules"`
	Views          int64          `db:"views"`
	Clicks         int64          `db:"clicks"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

// NewSQLStore wraps an open connection; closing the store closes db.
func NewSQLStore(db *DB) (*SQLStore, error) {
	st, err := newSQLStore(db.DB)
	if err != nil {
		return nil, err
	}
	st.closer = db.Close
	return st, nil
}

func newSQLStore(db *sqlx.DB) (*SQLStore, error) {
	dot, err := loadQueries()
	if err != nil {
		return nil, err
	}
	return &SQLStore{
		db:      db,
		dot:     dot,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: queryTimeout,
	}, nil
}

func loadQueries() (*dotsql.DotSql, error) {
	var combined string
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		combined += string(content) + "\n"
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load query files: %w", err)
	}
	dot, err := dotsql.LoadFromString(combined)
	if err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return dot, nil
}

func (s *SQLStore) query(name string) (string, error) {
	q, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return s.db.Rebind(q), nil
}

func (s *SQLStore) Create(ctx context.Context, b *banner.Banner) error {
	q, err := s.query("insert-banner")
	if err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := s.now()
	b.CreatedAt, b.UpdatedAt = now, now
	b.Views, b.Clicks = 0, 0

	doc, err := encodeDocs(b)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, q,
		b.ID, b.Name, string(b.Kind), string(b.Layout), b.Active, b.Priority,
		doc.displayOn, doc.background, doc.elements, doc.containerStyle, doc.animation, doc.displayRules,
		b.CreatedAt, b.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, b.ID)
		}
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*banner.Banner, error) {
	q, err := s.query("get-banner")
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row bannerRow
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, banner.ErrNotFound
		}
		return nil, fmt.Errorf("get banner: %w", err)
	}
	return row.decode()
}

func (s *SQLStore) List(ctx context.Context, activeOnly bool) ([]banner.Banner, error) {
	name, args := "list-banners", []any{}
	if activeOnly {
		name, args = "list-banners-active-only", []any{true}
	}
	rows, err := s.selectRows(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	out := make([]banner.Banner, 0, len(rows))
	for _, r := range rows {
		b, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

// ListActive filters on page after decoding: display_on is a JSON document
// whose containment operators differ between dialects. Rows whose documents
// no longer decode are logged and left out so one legacy record cannot hide
// every banner on the page.
func (s *SQLStore) ListActive(ctx context.Context, page string) ([]banner.Banner, error) {
	rows, err := s.selectRows(ctx, "list-active-banners", true)
	if err != nil {
		return nil, err
	}
	out := make([]banner.Banner, 0, len(rows))
	for _, r := range rows {
		b, err := r.decode()
		if err != nil {
			log.Warn().Err(err).Str("banner_id", r.ID).Msg("skipping undecodable banner")
			continue
		}
		if page != "" && !b.ShowsOn(page) {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, b *banner.Banner) error {
	q, err := s.query("update-banner")
	if err != nil {
		return err
	}
	doc, err := encodeDocs(b)
	if err != nil {
		return err
	}
	b.UpdatedAt = s.now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, q,
		b.Name, string(b.Kind), string(b.Layout), b.Active, b.Priority,
		doc.displayOn, doc.background, doc.elements, doc.containerStyle, doc.animation, doc.displayRules,
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}
	return expectOne(res)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.execOne(ctx, "delete-banner", id)
}

func (s *SQLStore) IncrementViews(ctx context.Context, id string) error {
	return s.execOne(ctx, "increment-views", id)
}

func (s *SQLStore) IncrementClicks(ctx context.Context, id string) error {
	return s.execOne(ctx, "increment-clicks", id)
}

func (s *SQLStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func (s *SQLStore) selectRows(ctx context.Context, name string, args ...any) ([]bannerRow, error) {
	q, err := s.query(name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []bannerRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("query banners: %w", err)
	}
	return rows, nil
}

func (s *SQLStore) execOne(ctx context.Context, name, id string) error {
	q, err := s.query(name)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return expectOne(res)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return banner.ErrNotFound
	}
	return nil
}

type docs struct {
	displayOn, background, elements         string
	containerStyle, animation, displayRules sql.NullString
}

func encodeDocs(b *banner.Banner) (docs, error) {
	var d docs
	var err error
	if d.displayOn, err = encodeJSON(b.DisplayOn); err != nil {
		return d, err
	}
	if d.background, err = encodeJSON(b.Background); err != nil {
		return d, err
	}
	elements := b.Elements
	if elements == nil {
		elements = []banner.Element{}
	}
	if d.elements, err = encodeJSON(elements); err != nil {
		return d, err
	}
	if b.ContainerStyle != nil {
		if d.containerStyle, err = encodeNullJSON(b.ContainerStyle); err != nil {
			return d, err
		}
	}
	if b.Animation != nil {
		if d.animation, err = encodeNullJSON(b.Animation); err != nil {
			return d, err
		}
	}
	if b.DisplayRules != nil {
		if d.displayRules, err = encodeNullJSON(b.DisplayRules); err != nil {
			return d, err
		}
	}
	return d, nil
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode banner document: %w", err)
	}
	return string(raw), nil
}

func encodeNullJSON(v any) (sql.NullString, error) {
	s, err := encodeJSON(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func (r bannerRow) decode() (*banner.Banner, error) {
	b := &banner.Banner{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      banner.Kind(r.Kind),
		Layout:    banner.Layout(r.Layout),
		Active:    r.Active,
		Priority:  r.Priority,
		Views:     r.Views,
		Clicks:    r.Clicks,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(r.DisplayOn), &b.DisplayOn); err != nil {
		return nil, fmt.Errorf("decode display_on of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Background), &b.Background); err != nil {
		return nil, fmt.Errorf("decode background of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Elements), &b.Elements); err != nil {
		return nil, fmt.Errorf("decode elements of %s: %w", r.ID, err)
	}
	if r.ContainerStyle.Valid {
		if err := json.Unmarshal([]byte(r.ContainerStyle.String), &b.ContainerStyle); err != nil {
			return nil, fmt.Errorf("decode container_style of %s: %w", r.ID, err)
		}
	}
	if r.Animation.Valid {
		b.Animation = &banner.Animation{}
		if err := json.Unmarshal([]byte(r.Animation.String), b.Animation); err != nil {
			return nil, fmt.Errorf("decode animation of %s: %w", r.ID, err)
		}
	}
	if r.DisplayRules.Valid {
		b.DisplayRules = &banner.DisplayRules{}
		if err := json.Unmarshal([]byte(r.DisplayRules.String), b.DisplayRules); err != nil {
			return nil, fmt.Errorf("decode display_rules of %s: %w", r.ID, err)
		}
	}
	return b, nil
}
