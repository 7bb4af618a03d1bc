// Package db provides persistence for generation history: connection
// management, embedded migrations, and non-blocking history writes.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// MaxStoredPromptLength bounds the prompt text persisted per record.
const MaxStoredPromptLength = 300

// GenerationRecord is one row in the generation_history table. It captures
// the outcome of a single generation request for auditing and the stats
// endpoint.
type GenerationRecord struct {
	ID             int64     // Auto-incremented primary key
	CorrelationID  string    // Short id tying the record to the request logs
	Endpoint       string    // Which endpoint served it: "object", "image", "video"
	Prompt         string    // User prompt, truncated to MaxStoredPromptLength
	Provider       string    // Winning provider key, empty on failure
	ProvidersTried []string  // Provider keys attempted, in order
	RenderCount    int       // Renders returned to the caller
	DownloadCount  int       // Downloads returned to the caller
	Status         string    // "success", "degraded", "error"
	ErrorMessage   string    // Error text when status is "error"
	DurationMS     int       // End-to-end request duration in milliseconds
	CreatedAt      time.Time // Timestamp when the record was created
}

// Generation record statuses.
const (
	StatusSuccess  = "success"
	StatusDegraded = "degraded"
	StatusError    = "error"
)

// GenerationStats summarizes the generation_history table for the stats
// endpoint.
type GenerationStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"byStatus"`
	ByProvider map[string]int64 `json:"byProvider"`
}

// Repository provides typed access to the generation_history table. When an
// AsyncWriter is attached, inserts are queued on it and fall back to a
// synchronous write only when the queue is full.
type Repository struct {
	db          *Database
	asyncWriter *AsyncWriter
}

// NewRepository creates a repository. asyncWriter may be nil, making every
// insert synchronous.
func NewRepository(db *Database, asyncWriter *AsyncWriter) *Repository {
	return &Repository{db: db, asyncWriter: asyncWriter}
}

// AttachAsyncWriter attaches an async writer after construction. The writer's
// handler typically is the repository's own HandleAsyncWrite, which makes the
// two mutually dependent; constructing the repository first and attaching the
// writer second breaks the cycle.
func (r *Repository) AttachAsyncWriter(w *AsyncWriter) {
	r.asyncWriter = w
}

// asyncInsertOp is the payload queued on the AsyncWriter for one insert.
type asyncInsertOp struct {
	query string
	args  []interface{}
}

// HandleAsyncWrite is the WriteHandler backing the repository's AsyncWriter.
func (r *Repository) HandleAsyncWrite(op WriteOperation) error {
	insert, ok := op.Data.(asyncInsertOp)
	if !ok {
		return fmt.Errorf("unexpected async write payload %T", op.Data)
	}
	_, err := r.db.Exec(insert.query, insert.args...)
	return err
}

// InsertGeneration persists one generation record. With an async writer
// attached the write is queued and the returned id is 0.
func (r *Repository) InsertGeneration(ctx context.Context, record GenerationRecord) (int64, error) {
	if r.db == nil {
		return 0, fmt.Errorf("database connection is nil")
	}

	query := `
		INSERT INTO generation_history (
			correlation_id, endpoint, prompt, provider, providers_tried,
			render_count, download_count, status, error_message, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	args := []interface{}{
		record.CorrelationID,
		record.Endpoint,
		truncatePrompt(record.Prompt),
		record.Provider,
		strings.Join(record.ProvidersTried, ","),
		record.RenderCount,
		record.DownloadCount,
		record.Status,
		record.ErrorMessage,
		record.DurationMS,
	}

	if r.asyncWriter != nil && r.asyncWriter.IsStarted() {
		if r.asyncWriter.Write(asyncInsertOp{query: query, args: args}) {
			return 0, nil
		}
		// Queue full, fall through to a synchronous write.
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert generation record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// RecentGenerations returns the most recent records, newest first.
func (r *Repository) RecentGenerations(ctx context.Context, limit int) ([]GenerationRecord, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, correlation_id, endpoint, prompt, provider, providers_tried,
		       render_count, download_count, status, error_message, duration_ms, created_at
		FROM generation_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation history: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		record, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generation history: %w", err)
	}
	return records, nil
}

// Stats aggregates the history table for the stats endpoint.
func (r *Repository) Stats(ctx context.Context) (*GenerationStats, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	stats := &GenerationStats{
		ByStatus:   make(map[string]int64),
		ByProvider: make(map[string]int64),
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM generation_history`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count generation history: %w", err)
	}

	statusRows, err := r.db.Query(`SELECT status, COUNT(*) FROM generation_history GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by status: %w", err)
	}
	defer statusRows.Close()
	for statusRows.Next() {
		var status string
		var count int64
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status rows: %w", err)
	}

	providerRows, err := r.db.Query(`
		SELECT provider, COUNT(*) FROM generation_history
		WHERE provider != '' GROUP BY provider`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by provider: %w", err)
	}
	defer providerRows.Close()
	for providerRows.Next() {
		var provider string
		var count int64
		if err := providerRows.Scan(&provider, &count); err != nil {
			return nil, fmt.Errorf("failed to scan provider row: %w", err)
		}
		stats.ByProvider[provider] = count
	}
	if err := providerRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider rows: %w", err)
	}

	return stats, nil
}

// scanGeneration reads one row into a GenerationRecord.
func scanGeneration(rows *sql.Rows) (GenerationRecord, error) {
	var record GenerationRecord
	var tried string
	err := rows.Scan(
		&record.ID,
		&record.CorrelationID,
		&record.Endpoint,
		&record.Prompt,
		&record.Provider,
		&tried,
		&record.RenderCount,
		&record.DownloadCount,
		&record.Status,
		&record.ErrorMessage,
		&record.DurationMS,
		&record.CreatedAt,
	)
	if err != nil {
		return GenerationRecord{}, fmt.Errorf("failed to scan generation record: %w", err)
	}
	if tried != "" {
		record.ProvidersTried = strings.Split(tried, ",")
	}
	return record, nil
}

// truncatePrompt bounds the stored prompt text.
func truncatePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= MaxStoredPromptLength {
		return prompt
	}
	return string(runes[:MaxStoredPromptLength])
}
