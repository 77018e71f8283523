package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS members (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	bio TEXT,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_members_username ON members(username);

CREATE TABLE IF NOT EXISTS member_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	member_id INTEGER NOT NULL,
	alg TEXT NOT NULL,
	public_key TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	revoked_at INTEGER,
	FOREIGN KEY(member_id) REFERENCES members(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_member_keys_unique ON member_keys(alg, public_key);

CREATE TABLE IF NOT EXISTS auth_challenges (
	challenge TEXT PRIMARY KEY,
	alg TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_tokens (
	token_id TEXT PRIMARY KEY,
	member_id INTEGER NOT NULL,
	username TEXT NOT NULL,
	key_id INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_auth_tokens_member_id ON auth_tokens(member_id);
`,
	// Migration 2: Articles
	`
CREATE TABLE IF NOT EXISTS articles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	content TEXT NOT NULL,
	member_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	hidden INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_member_id ON articles(member_id);
`,
}

func applySchema(db *sql.DB) error {
	// Create schema_version table to track migrations
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

const articleColumns = `a.id, a.subject, a.content, a.member_id, m.username, a.created_at, a.updated_at, a.hidden`

func (s *Store) CreateArticle(ctx context.Context, article *model.Article) (int64, error) {
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = article.CreatedAt
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO articles (subject, content, member_id, created_at, updated_at, hidden)
VALUES (?, ?, ?, ?, ?, ?)
`, article.Subject, article.Content, article.MemberID, article.CreatedAt.Unix(), article.UpdatedAt.Unix(), boolToInt(article.Hidden))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetArticle(ctx context.Context, id int64) (model.Article, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+articleColumns+`
FROM articles a
LEFT JOIN members m ON m.id = a.member_id
WHERE a.id = ? AND a.hidden = 0
LIMIT 1
`, id)
	return scanArticle(row)
}

func (s *Store) ListArticles(ctx context.Context) ([]model.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+articleColumns+`
FROM articles a
LEFT JOIN members m ON m.id = a.member_id
WHERE a.hidden = 0
ORDER BY a.created_at DESC, a.id DESC
`)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (s *Store) ListArticlesByMember(ctx context.Context, memberID int64, limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+articleColumns+`
FROM articles a
LEFT JOIN members m ON m.id = a.member_id
WHERE a.member_id = ? AND a.hidden = 0
ORDER BY a.created_at DESC, a.id DESC
LIMIT ?
`, memberID, limit)
	if err != nil {
		return nil, err
	}
	return collectArticles(rows)
}

func (s *Store) UpdateArticle(ctx context.Context, id int64, subject, content string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE articles SET subject = ?, content = ?, updated_at = ? WHERE id = ? AND hidden = 0
`, subject, content, updatedAt.Unix(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) HideArticle(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET hidden = 1 WHERE id = ? AND hidden = 0`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateMember(ctx context.Context, member *model.Member, key *model.MemberKey) (int64, int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO members (username, bio, created_at)
VALUES (?, ?, ?)
`, member.Username, nullIfEmpty(member.Bio), member.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, 0, store.ErrDuplicateName
		}
		return 0, 0, err
	}
	memberID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}
	res, err = tx.ExecContext(ctx, `
INSERT INTO member_keys (member_id, alg, public_key, created_at, revoked_at)
VALUES (?, ?, ?, ?, NULL)
`, memberID, key.Alg, key.PublicKey, key.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, 0, store.ErrDuplicateKey
		}
		return 0, 0, err
	}
	keyID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, 0, err
	}
	return memberID, keyID, nil
}

func (s *Store) GetMember(ctx context.Context, id int64) (model.Member, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, bio, created_at
FROM members
WHERE id = ?
`, id)
	return scanMember(row)
}

func (s *Store) GetMemberByUsername(ctx context.Context, username string) (model.Member, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, username, bio, created_at
FROM members
WHERE username = ?
`, username)
	return scanMember(row)
}

func (s *Store) GetMemberKeys(ctx context.Context, memberID int64) ([]model.MemberKey, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, member_id, alg, public_key, created_at, revoked_at
FROM member_keys
WHERE member_id = ? AND revoked_at IS NULL
ORDER BY created_at ASC
`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.MemberKey
	for rows.Next() {
		var k model.MemberKey
		var created int64
		var revoked sql.NullInt64
		if err := rows.Scan(&k.ID, &k.MemberID, &k.Alg, &k.PublicKey, &created, &revoked); err != nil {
			return nil, err
		}
		k.CreatedAt = time.Unix(created, 0)
		if revoked.Valid {
			t := time.Unix(revoked.Int64, 0)
			k.RevokedAt = &t
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RevokeMemberKey marks an active key revoked and drops the tokens issued
// with it. Keys that belong to another member or are already revoked are
// reported as ErrNotFound.
func (s *Store) RevokeMemberKey(ctx context.Context, memberID, keyID int64, revokedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `
UPDATE member_keys SET revoked_at = ? WHERE id = ? AND member_id = ? AND revoked_at IS NULL
`, revokedAt.Unix(), keyID, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = store.ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE key_id = ?`, keyID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func (s *Store) FindMemberKey(ctx context.Context, alg, publicKey string) (model.MemberKey, *model.Member, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT k.id, k.member_id, k.alg, k.public_key, k.created_at, k.revoked_at,
	m.id, m.username, m.bio, m.created_at
FROM member_keys k
LEFT JOIN members m ON m.id = k.member_id
WHERE k.alg = ? AND k.public_key = ?
LIMIT 1
`, alg, publicKey)
	var k model.MemberKey
	var created int64
	var revoked sql.NullInt64
	var memberID sql.NullInt64
	var username sql.NullString
	var bio sql.NullString
	var memberCreated sql.NullInt64
	if err := row.Scan(&k.ID, &k.MemberID, &k.Alg, &k.PublicKey, &created, &revoked, &memberID, &username, &bio, &memberCreated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.MemberKey{}, nil, store.ErrNotFound
		}
		return model.MemberKey{}, nil, err
	}
	k.CreatedAt = time.Unix(created, 0)
	if revoked.Valid {
		t := time.Unix(revoked.Int64, 0)
		k.RevokedAt = &t
	}
	if !memberID.Valid {
		return k, nil, nil
	}
	m := model.Member{ID: memberID.Int64, Username: username.String, Bio: bio.String}
	if memberCreated.Valid {
		m.CreatedAt = time.Unix(memberCreated.Int64, 0)
	}
	return k, &m, nil
}

// DeleteMember removes a member together with its keys and tokens. The
// member's articles are hidden rather than deleted.
func (s *Store) DeleteMember(ctx context.Context, memberID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM auth_tokens WHERE member_id = ?`, memberID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM member_keys WHERE member_id = ?`, memberID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE articles SET hidden = 1 WHERE member_id = ?`, memberID); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = store.ErrNotFound
		return err
	}
	err = tx.Commit()
	return err
}

func (s *Store) CreateChallenge(ctx context.Context, c model.Challenge) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO auth_challenges (challenge, alg, expires_at, created_at)
VALUES (?, ?, ?, ?)
`, c.Challenge, c.Alg, c.ExpiresAt.Unix(), time.Now().Unix())
	return err
}

func (s *Store) ConsumeChallenge(ctx context.Context, challenge string) (model.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT challenge, alg, expires_at
FROM auth_challenges
WHERE challenge = ?
`, challenge)
	var c model.Challenge
	var expires int64
	if err := row.Scan(&c.Challenge, &c.Alg, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Challenge{}, store.ErrNotFound
		}
		return model.Challenge{}, err
	}
	c.ExpiresAt = time.Unix(expires, 0)
	_, _ = s.db.ExecContext(ctx, `DELETE FROM auth_challenges WHERE challenge = ?`, challenge)
	return c, nil
}

func (s *Store) CreateToken(ctx context.Context, token model.Token) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO auth_tokens (token_id, member_id, username, key_id, expires_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, token.ID, token.MemberID, token.Username, token.KeyID, token.ExpiresAt.Unix(), time.Now().Unix())
	return err
}

func (s *Store) GetToken(ctx context.Context, id string) (model.Token, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT token_id, member_id, username, key_id, expires_at
FROM auth_tokens
WHERE token_id = ?
`, id)
	var t model.Token
	var expires int64
	if err := row.Scan(&t.ID, &t.MemberID, &t.Username, &t.KeyID, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Token{}, store.ErrNotFound
		}
		return model.Token{}, err
	}
	t.ExpiresAt = time.Unix(expires, 0)
	return t, nil
}

func (s *Store) GetSiteStats(ctx context.Context) (model.SiteStats, error) {
	var stats model.SiteStats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`)
	if err := row.Scan(&stats.Members); err != nil {
		return stats, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles WHERE hidden = 0`)
	if err := row.Scan(&stats.Articles); err != nil {
		return stats, err
	}
	return stats, nil
}

func scanArticle(scanner interface{ Scan(dest ...any) error }) (model.Article, error) {
	var a model.Article
	var memberName sql.NullString
	var created, updated int64
	var hidden int
	if err := scanner.Scan(&a.ID, &a.Subject, &a.Content, &a.MemberID, &memberName, &created, &updated, &hidden); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, store.ErrNotFound
		}
		return model.Article{}, err
	}
	if memberName.Valid {
		a.MemberName = memberName.String
	}
	a.CreatedAt = time.Unix(created, 0)
	a.UpdatedAt = time.Unix(updated, 0)
	a.Hidden = hidden == 1
	return a, nil
}

func collectArticles(rows *sql.Rows) ([]model.Article, error) {
	defer rows.Close()

	articles := make([]model.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return articles, nil
}

func scanMember(row *sql.Row) (model.Member, error) {
	var m model.Member
	var created int64
	var bio sql.NullString
	if err := row.Scan(&m.ID, &m.Username, &bio, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, store.ErrNotFound
		}
		return model.Member{}, err
	}
	if bio.Valid {
		m.Bio = bio.String
	}
	m.CreatedAt = time.Unix(created, 0)
	return m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
