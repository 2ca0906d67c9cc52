package knowledge

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	chunkSize      = 500
	relevanceFloor = 0.7
	contextChunks  = 5
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Library is a vector store over the chunks table.
type Library struct {
	store *Store
	emb   Embedder
}

func (s *Store) Library(emb Embedder) *Library {
	return &Library{store: s, emb: emb}
}

// Ingest splits text into chunks, embeds each one and replaces whatever
// was stored for source. It returns the number of chunks stored.
func (l *Library) Ingest(ctx context.Context, source, text string) (int, error) {
	chunks := Chunk(text, chunkSize)

	tx, err := l.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("drop old chunks: %w", err)
	}

	for i, c := range chunks {
		vec, err := l.emb.Embed(ctx, c)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of %s: %w", i, source, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (id, source, idx, content, vector) VALUES (?, ?, ?, ?, ?)`,
			hash(fmt.Sprintf("%s_%d", source, i)), source, i, c, encodeVector(vec),
		); err != nil {
			return 0, fmt.Errorf("store chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}
	return len(chunks), nil
}

// Context returns the stored chunks most relevant to query, formatted for
// a prompt. An empty string means nothing cleared the relevance floor.
func (l *Library) Context(ctx context.Context, query string) (string, error) {
	q, err := l.emb.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	rows, err := l.store.db.QueryContext(ctx, `SELECT source, content, vector FROM chunks`)
	if err != nil {
		return "", fmt.Errorf("read chunks: %w", err)
	}
	defer rows.Close()

	type hit struct {
		source, content string
		score           float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		var blob []byte
		if err := rows.Scan(&h.source, &h.content, &blob); err != nil {
			return "", fmt.Errorf("read chunks: %w", err)
		}
		if h.score = Cosine(q, decodeVector(blob)); h.score > relevanceFloor {
			hits = append(hits, h)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > contextChunks {
		hits = hits[:contextChunks]
	}

	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = fmt.Sprintf("[%s] %s", h.source, h.content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// Chunk splits text on sentence ends into pieces shorter than max.
func Chunk(text string, max int) []string {
	var chunks []string
	var cur strings.Builder

	for _, sentence := range strings.Split(text, ". ") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if cur.Len()+len(sentence) >= max && cur.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteString(strings.TrimSuffix(sentence, "."))
		cur.WriteString(". ")
	}
	if cur.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(cur.String()))
	}
	return chunks
}

func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
