package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigilsafe/vigil/internal/domain"
)

type SessionRepository struct {
	pool PgxPool
}

func NewSessionRepository(pool PgxPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.AnalysisSession) error {
	query := `
		INSERT INTO analysis_sessions (id, camera_id, source_locator, interval_seconds, status, coverage, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING started_at
	`

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Status == "" {
		session.Status = domain.SessionStatusRunning
	}

	coverage, err := json.Marshal(session.Coverage)
	if err != nil {
		return fmt.Errorf("marshal coverage: %w", err)
	}

	err = r.pool.QueryRow(ctx, query,
		session.ID,
		session.CameraID,
		session.SourceLocator,
		session.IntervalSeconds,
		session.Status,
		coverage,
	).Scan(&session.StartedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error) {
	query := `
		SELECT id, camera_id, source_locator, interval_seconds, status, coverage, summary, frames, started_at, completed_at
		FROM analysis_sessions
		WHERE id = $1
	`

	var (
		session  domain.AnalysisSession
		coverage []byte
		summary  []byte
		frames   []byte
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.CameraID,
		&session.SourceLocator,
		&session.IntervalSeconds,
		&session.Status,
		&coverage,
		&summary,
		&frames,
		&session.StartedAt,
		&session.CompletedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	if err := json.Unmarshal(coverage, &session.Coverage); err != nil {
		return nil, fmt.Errorf("unmarshal coverage: %w", err)
	}
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &session.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
	}
	if len(frames) > 0 {
		if err := json.Unmarshal(frames, &session.Frames); err != nil {
			return nil, fmt.Errorf("unmarshal frames: %w", err)
		}
	}

	return &session, nil
}

// ListByCamera returns the most recent sessions for one camera. Frame
// payloads are left out, they can be megabytes per session.
func (r *SessionRepository) ListByCamera(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error) {
	query := `
		SELECT id, camera_id, source_locator, interval_seconds, status, coverage, summary, started_at, completed_at
		FROM analysis_sessions
		WHERE camera_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, query, cameraID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.AnalysisSession
	for rows.Next() {
		var (
			session  domain.AnalysisSession
			coverage []byte
			summary  []byte
		)
		err := rows.Scan(
			&session.ID,
			&session.CameraID,
			&session.SourceLocator,
			&session.IntervalSeconds,
			&session.Status,
			&coverage,
			&summary,
			&session.StartedAt,
			&session.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal(coverage, &session.Coverage); err != nil {
			return nil, fmt.Errorf("unmarshal coverage: %w", err)
		}
		if len(summary) > 0 {
			if err := json.Unmarshal(summary, &session.Summary); err != nil {
				return nil, fmt.Errorf("unmarshal summary: %w", err)
			}
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Complete stores the final summary and per-frame results and stamps the
// session completed.
func (r *SessionRepository) Complete(ctx context.Context, session *domain.AnalysisSession) error {
	query := `
		UPDATE analysis_sessions
		SET status = $2, summary = $3, frames = $4, completed_at = NOW()
		WHERE id = $1
		RETURNING completed_at
	`

	summary, err := json.Marshal(session.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	frames, err := json.Marshal(session.Frames)
	if err != nil {
		return fmt.Errorf("marshal frames: %w", err)
	}

	session.Status = domain.SessionStatusCompleted
	err = r.pool.QueryRow(ctx, query,
		session.ID,
		session.Status,
		summary,
		frames,
	).Scan(&session.CompletedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	return nil
}

func (r *SessionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE analysis_sessions
		SET status = $2, completed_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, domain.SessionStatusFailed)
	if err != nil {
		return fmt.Errorf("mark session failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}
