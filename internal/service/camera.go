package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/geometry"
)

type CameraRepositoryInterface interface {
	Create(ctx context.Context, camera *domain.CameraProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, error)
	List(ctx context.Context) ([]domain.CameraProfile, error)
	Update(ctx context.Context, camera *domain.CameraProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CameraService manages camera profiles and their derived ground coverage.
type CameraService struct {
	repo CameraRepositoryInterface
}

func NewCameraService(repo CameraRepositoryInterface) *CameraService {
	return &CameraService{repo: repo}
}

func (s *CameraService) Register(ctx context.Context, camera *domain.CameraProfile) error {
	if err := camera.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, camera)
}

func (s *CameraService) Get(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CameraService) List(ctx context.Context) ([]domain.CameraProfile, error) {
	return s.repo.List(ctx)
}

func (s *CameraService) Update(ctx context.Context, camera *domain.CameraProfile) error {
	if err := camera.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, camera)
}

func (s *CameraService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Coverage derives the observed ground trapezoid from the stored mounting
// geometry. Degenerate geometry yields a zero-area result, not an error.
func (s *CameraService) Coverage(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, domain.CoverageArea, error) {
	camera, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.CoverageArea{}, err
	}
	return camera, geometry.CoverageForProfile(camera), nil
}
