// Package knowledge keeps the assistant's offline answers, a cache of
// generated replies and a conversation log in one SQLite file.
package knowledge

import (
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("knowledge: not found")

const (
	// Fuzzy question matches need at least this word overlap.
	similarityThreshold = 0.7
	directThreshold     = 0.8
	onlineBelow         = 0.7
	cacheTTL            = 24 * time.Hour
	learnedConfidence   = 0.8
)

const schema = `
CREATE TABLE IF NOT EXISTS knowledge (
	question_hash TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	question      TEXT NOT NULL,
	answer        TEXT NOT NULL,
	confidence    REAL NOT NULL,
	last_used     INTEGER NOT NULL,
	usage_count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS api_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	message    TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_at);
CREATE TABLE IF NOT EXISTS chunks (
	id      TEXT PRIMARY KEY,
	source  TEXT NOT NULL,
	idx     INTEGER NOT NULL,
	content TEXT NOT NULL,
	vector  BLOB NOT NULL
);
`

// Answer is an offline reply and how much it can be trusted.
type Answer struct {
	Text        string  `json:"response"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
	NeedsOnline bool    `json:"needs_online"`
}

// Match is a stored question that resembles a query.
type Match struct {
	Question   string
	Answer     string
	Category   string
	Confidence float64
	Similarity float64
}

type Exchange struct {
	Message  string
	Response string
	At       time.Time
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and seeds the base
// knowledge on first use.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.seed(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge`).Scan(&n); err != nil {
		return fmt.Errorf("count knowledge: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, e := range baseKnowledge {
		if err := s.Teach(ctx, e.question, e.answer, e.category, 1.0); err != nil {
			return fmt.Errorf("seed knowledge: %w", err)
		}
	}
	return nil
}

func hash(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Teach stores an answer for question, keeping its usage count.
func (s *Store) Teach(ctx context.Context, question, answer, category string, confidence float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge (question_hash, category, question, answer, confidence, last_used, usage_count)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(question_hash) DO UPDATE SET
			category = excluded.category,
			answer = excluded.answer,
			confidence = excluded.confidence,
			last_used = excluded.last_used`,
		hash(strings.ToLower(question)), category, question, answer, confidence, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("store knowledge: %w", err)
	}
	return nil
}

// Query finds the stored answer for query: an exact question first, then
// the question with the best word overlap above the threshold.
func (s *Store) Query(ctx context.Context, query string) (Match, error) {
	lq := strings.ToLower(query)
	h := hash(lq)

	var m Match
	err := s.db.QueryRowContext(ctx,
		`SELECT question, answer, category, confidence FROM knowledge WHERE question_hash = ?`, h,
	).Scan(&m.Question, &m.Answer, &m.Category, &m.Confidence)
	switch {
	case err == nil:
		m.Similarity = 1
		if _, err := s.db.ExecContext(ctx,
			`UPDATE knowledge SET last_used = ?, usage_count = usage_count + 1 WHERE question_hash = ?`,
			s.now().Unix(), h); err != nil {
			return Match{}, fmt.Errorf("update usage: %w", err)
		}
		return m, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Match{}, fmt.Errorf("query knowledge: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT question, answer, category, confidence FROM knowledge`)
	if err != nil {
		return Match{}, fmt.Errorf("scan knowledge: %w", err)
	}
	defer rows.Close()

	var best Match
	for rows.Next() {
		var c Match
		if err := rows.Scan(&c.Question, &c.Answer, &c.Category, &c.Confidence); err != nil {
			return Match{}, fmt.Errorf("scan knowledge: %w", err)
		}
		score := Similarity(lq, strings.ToLower(c.Question))
		if score > similarityThreshold && score > best.Similarity {
			c.Similarity = score
			c.Confidence *= score
			best = c
		}
	}
	if err := rows.Err(); err != nil {
		return Match{}, fmt.Errorf("scan knowledge: %w", err)
	}
	if best.Similarity == 0 {
		return Match{}, ErrNotFound
	}
	return best, nil
}

// Similarity is the Jaccard overlap of the two texts' word sets.
func Similarity(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(wa)+len(wb)-inter)
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// Cache stores a generated response for query until ttl elapses.
func (s *Store) Cache(ctx context.Context, query, response string, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO api_cache (query_hash, query, response, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		hash(query), query, response, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache response: %w", err)
	}
	return nil
}

// Cached returns an unexpired cached response or ErrNotFound.
func (s *Store) Cached(ctx context.Context, query string) (string, error) {
	var resp string
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM api_cache WHERE query_hash = ? AND expires_at > ?`,
		hash(query), s.now().Unix(),
	).Scan(&resp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read cache: %w", err)
	}
	return resp, nil
}

func (s *Store) LogConversation(ctx context.Context, user, message, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, message, response, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), user, message, response, s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("log conversation: %w", err)
	}
	return nil
}

// History returns the user's last n exchanges, newest first.
func (s *Store) History(ctx context.Context, user string, n int) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT message, response, created_at FROM conversations WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		user, n,
	)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		var e Exchange
		var at int64
		if err := rows.Scan(&e.Message, &e.Response, &at); err != nil {
			return nil, fmt.Errorf("read history: %w", err)
		}
		e.At = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Respond answers query from local data only.
func (s *Store) Respond(ctx context.Context, user, query string) (Answer, error) {
	m, err := s.Query(ctx, query)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Answer{}, err
	}
	found := err == nil

	if found && m.Confidence > directThreshold {
		return Answer{Text: m.Answer, Confidence: m.Confidence, Source: "offline_knowledge"}, nil
	}

	cached, err := s.Cached(ctx, query)
	switch {
	case err == nil:
		return Answer{Text: cached, Confidence: 0.9, Source: "cached"}, nil
	case !errors.Is(err, ErrNotFound):
		return Answer{}, err
	}

	var a Answer
	lq := strings.ToLower(query)
	switch {
	case isGreeting(lq):
		a = Answer{Text: greeting, Confidence: 1}
	case isHelp(lq):
		a = Answer{Text: capabilities, Confidence: 1}
	case found:
		a = Answer{
			Text:       m.Answer + " (Note: I'm currently offline, so this information might not be the most current.)",
			Confidence: m.Confidence * 0.8,
		}
	default:
		a = Answer{Text: unknown, Confidence: 0.3}
	}
	a.Source = "offline_generated"
	a.NeedsOnline = a.Confidence < onlineBelow
	return a, nil
}

// Learn records an online exchange so it can be answered offline later:
// as knowledge, as a cached response and in the conversation log.
func (s *Store) Learn(ctx context.Context, user, query, answer string) error {
	if err := s.Teach(ctx, query, answer, "conversation", learnedConfidence); err != nil {
		return err
	}
	if err := s.Cache(ctx, query, answer, cacheTTL); err != nil {
		return err
	}
	return s.LogConversation(ctx, user, query, answer)
}

// Cleanup deletes cache entries and conversations older than days.
func (s *Store) Cleanup(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -days)

	res, err := s.db.ExecContext(ctx, `DELETE FROM api_cache WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("clean cache: %w", err)
	}
	cache, _ := res.RowsAffected()

	res, err = s.db.ExecContext(ctx, `DELETE FROM conversations WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return cache, fmt.Errorf("clean conversations: %w", err)
	}
	convo, _ := res.RowsAffected()

	return cache + convo, nil
}
