package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vigilsafe/vigil/internal/domain"
)

type CameraRepository struct {
	pool PgxPool
}

func NewCameraRepository(pool PgxPool) *CameraRepository {
	return &CameraRepository{pool: pool}
}

func (r *CameraRepository) Create(ctx context.Context, camera *domain.CameraProfile) error {
	query := `
		INSERT INTO cameras (id, name, location, mounting_height, vertical_fov, horizontal_fov, tilt, stream_url, video_file_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if camera.ID == uuid.Nil {
		camera.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		camera.ID,
		camera.Name,
		camera.Location,
		camera.MountingHeight,
		camera.VerticalFOV,
		camera.HorizontalFOV,
		camera.Tilt,
		camera.StreamURL,
		camera.VideoFileURL,
	).Scan(&camera.CreatedAt, &camera.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return &domain.AppError{
				Code:       "CAMERA_ALREADY_EXISTS",
				Message:    "Camera with this name already exists",
				StatusCode: 409,
			}
		}
		return fmt.Errorf("create camera: %w", err)
	}

	return nil
}

func (r *CameraRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, error) {
	query := `
		SELECT id, name, location, mounting_height, vertical_fov, horizontal_fov, tilt, stream_url, video_file_url, created_at, updated_at
		FROM cameras
		WHERE id = $1
	`

	var camera domain.CameraProfile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&camera.ID,
		&camera.Name,
		&camera.Location,
		&camera.MountingHeight,
		&camera.VerticalFOV,
		&camera.HorizontalFOV,
		&camera.Tilt,
		&camera.StreamURL,
		&camera.VideoFileURL,
		&camera.CreatedAt,
		&camera.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCameraNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get camera by id: %w", err)
	}

	return &camera, nil
}

func (r *CameraRepository) List(ctx context.Context) ([]domain.CameraProfile, error) {
	query := `
		SELECT id, name, location, mounting_height, vertical_fov, horizontal_fov, tilt, stream_url, video_file_url, created_at, updated_at
		FROM cameras
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cameras: %w", err)
	}
	defer rows.Close()

	var cameras []domain.CameraProfile
	for rows.Next() {
		var camera domain.CameraProfile
		err := rows.Scan(
			&camera.ID,
			&camera.Name,
			&camera.Location,
			&camera.MountingHeight,
			&camera.VerticalFOV,
			&camera.HorizontalFOV,
			&camera.Tilt,
			&camera.StreamURL,
			&camera.VideoFileURL,
			&camera.CreatedAt,
			&camera.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan camera: %w", err)
		}
		cameras = append(cameras, camera)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cameras: %w", err)
	}

	return cameras, nil
}

func (r *CameraRepository) Update(ctx context.Context, camera *domain.CameraProfile) error {
	query := `
		UPDATE cameras
		SET name = $2, location = $3, mounting_height = $4, vertical_fov = $5, horizontal_fov = $6, tilt = $7, stream_url = $8, video_file_url = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		camera.ID,
		camera.Name,
		camera.Location,
		camera.MountingHeight,
		camera.VerticalFOV,
		camera.HorizontalFOV,
		camera.Tilt,
		camera.StreamURL,
		camera.VideoFileURL,
	).Scan(&camera.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrCameraNotFound
	}
	if err != nil {
		return fmt.Errorf("update camera: %w", err)
	}

	return nil
}

func (r *CameraRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM cameras WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete camera: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCameraNotFound
	}

	return nil
}
