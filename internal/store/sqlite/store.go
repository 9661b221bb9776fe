// Package sqlite keeps a translation memory of saved catalogs in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/store/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists catalogs keyed by (name, language).
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Entry describes one saved catalog.
type Entry struct {
	Name     string
	Language string
	Messages int
	SavedAt  time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveCatalog replaces the stored copy of catalog name in c's language.
func (s *Store) SaveCatalog(ctx context.Context, name string, c *tscat.Catalog) (err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("catalog name is required")
	}
	if c == nil {
		return fmt.Errorf("catalog is required")
	}
	lang := normalizeLanguage(c.Language)
	if lang == "" {
		return fmt.Errorf("catalog %s: language is required", name)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM messages WHERE catalog_name = ? AND language = ?`, name, lang); err != nil {
		return fmt.Errorf("clear catalog %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO catalogs (name, language, source_language, version, saved_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (name, language) DO UPDATE SET
		   source_language = excluded.source_language,
		   version = excluded.version,
		   saved_at = excluded.saved_at`,
		name, lang, c.SourceLanguage, c.Version, toMillis(s.now()),
	); err != nil {
		return fmt.Errorf("save catalog %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO messages (
	   catalog_name, language, context_position, position, context, context_comment,
	   message_id, source, comment, old_source, old_comment, extra_comment,
	   translator_comment, translation, numerus, numerus_forms, locations, status
	 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare messages: %w", err)
	}
	defer stmt.Close()

	for ci, ctxt := range c.Contexts {
		for mi, m := range ctxt.Messages {
			forms, err := json.Marshal(nonNil(m.NumerusForms))
			if err != nil {
				return err
			}
			locations, err := json.Marshal(m.Locations)
			if err != nil {
				return err
			}
			if _, err = stmt.ExecContext(ctx,
				name, lang, ci, mi, ctxt.Name, ctxt.Comment,
				m.ID, m.Source, m.Comment, m.OldSource, m.OldComment, m.ExtraComment,
				m.TranslatorComment, m.Translation, m.Numerus, string(forms), string(locations), m.Status.String(),
			); err != nil {
				return fmt.Errorf("save message %q in %s: %w", m.Source, ctxt.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog %s: %w", name, err)
	}
	return nil
}

func nonNil(forms []string) []string {
	if forms == nil {
		return []string{}
	}
	return forms
}

// LoadCatalog rebuilds a saved catalog with its contexts and messages in their
// original order. Contexts that held no messages are not kept.
func (s *Store) LoadCatalog(ctx context.Context, name string, lang string) (*tscat.Catalog, error) {
	lang = normalizeLanguage(lang)
	c := &tscat.Catalog{Language: lang}
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT source_language, version FROM catalogs WHERE name = ? AND language = ?`, name, lang,
	).Scan(&c.SourceLanguage, &c.Version)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("catalog %s (%s) not found", name, lang)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", name, err)
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT context_position, context, context_comment, message_id, source, comment,
		        old_source, old_comment, extra_comment, translator_comment, translation,
		        numerus, numerus_forms, locations, status
		   FROM messages
		  WHERE catalog_name = ? AND language = ?
		  ORDER BY context_position, position`, name, lang)
	if err != nil {
		return nil, fmt.Errorf("load messages of %s: %w", name, err)
	}
	defer rows.Close()

	lastPosition := -1
	var current *tscat.Context
	for rows.Next() {
		var (
			position         int
			contextName      string
			contextComment   string
			forms, locations string
			status           string
			m                tscat.Message
		)
		if err := rows.Scan(&position, &contextName, &contextComment, &m.ID, &m.Source, &m.Comment,
			&m.OldSource, &m.OldComment, &m.ExtraComment, &m.TranslatorComment, &m.Translation,
			&m.Numerus, &forms, &locations, &status); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.Status, err = tscat.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("message %q in %s: %w", m.Source, contextName, err)
		}
		if m.Numerus {
			if err := json.Unmarshal([]byte(forms), &m.NumerusForms); err != nil {
				return nil, fmt.Errorf("message %q in %s: numerus forms: %w", m.Source, contextName, err)
			}
		}
		if err := json.Unmarshal([]byte(locations), &m.Locations); err != nil {
			return nil, fmt.Errorf("message %q in %s: locations: %w", m.Source, contextName, err)
		}
		if position != lastPosition {
			current = &tscat.Context{Name: contextName, Comment: contextComment}
			c.Contexts = append(c.Contexts, current)
			lastPosition = position
		}
		current.Messages = append(current.Messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return c, nil
}

// Catalogs lists every saved catalog, ordered by name then language.
func (s *Store) Catalogs(ctx context.Context) ([]Entry, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT c.name, c.language, c.saved_at, COUNT(m.source)
		   FROM catalogs c
		   LEFT JOIN messages m ON m.catalog_name = c.name AND m.language = c.language
		  GROUP BY c.name, c.language
		  ORDER BY c.name, c.language`)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var savedAt int64
		if err := rows.Scan(&e.Name, &e.Language, &savedAt, &e.Messages); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		e.SavedAt = fromMillis(savedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Suggest returns the finished translations of source in lang across all saved
// catalogs, most frequent first. A base language such as "pt" also matches
// regional catalogs such as "pt-br".
func (s *Store) Suggest(ctx context.Context, lang string, source string) ([]string, error) {
	lang = normalizeLanguage(lang)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT translation, COUNT(*) AS uses
		   FROM messages
		  WHERE (language = ? OR language LIKE ?)
		    AND source = ? AND status = ? AND numerus = 0 AND translation <> ''
		  GROUP BY translation
		  ORDER BY uses DESC, translation ASC`,
		lang, lang+"-%", source, tscat.StatusFinished.String())
	if err != nil {
		return nil, fmt.Errorf("suggest %q: %w", source, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var translation string
		var uses int
		if err := rows.Scan(&translation, &uses); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		out = append(out, translation)
	}
	return out, rows.Err()
}

type memory struct {
	ctx   context.Context
	store *Store
	lang  string
}

func (m memory) Suggest(source string) (string, bool) {
	suggestions, err := m.store.Suggest(m.ctx, m.lang, source)
	if err != nil || len(suggestions) == 0 {
		return "", false
	}
	return suggestions[0], true
}

// Memory adapts the store to tscat.Memory for one language. Lookup errors read
// as "no suggestion".
func (s *Store) Memory(ctx context.Context, lang string) tscat.Memory {
	return memory{ctx: ctx, store: s, lang: lang}
}
