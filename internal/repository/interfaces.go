package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vigilsafe/vigil/internal/domain"
)

// PgxPool is the subset of pgxpool.Pool the repositories use. pgxmock
// pools satisfy it too, which keeps repository tests database-free.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// CameraRepositoryInterface defines operations for camera profile data access
type CameraRepositoryInterface interface {
	Create(ctx context.Context, camera *domain.CameraProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, error)
	List(ctx context.Context) ([]domain.CameraProfile, error)
	Update(ctx context.Context, camera *domain.CameraProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionRepositoryInterface defines operations for analysis session data access
type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *domain.AnalysisSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error)
	ListByCamera(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error)
	Complete(ctx context.Context, session *domain.AnalysisSession) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
