package inference

import (
	"errors"
	"fmt"
	"log/slog"
)

// Config carries the model file locations for every detector.
type Config struct {
	FireModelPath   string
	PersonModelPath string
	PoseModelPath   string
}

// Registry holds the loaded model sessions. It is built once at startup and
// shared by every analysis session; individual Runners serialize their own
// access.
type Registry struct {
	Fire   Runner
	Person Runner
	Pose   Runner

	sessions []*Session
}

// NewRegistry loads all three models. Any failure aborts startup.
func NewRegistry(cfg Config, log *slog.Logger) (*Registry, error) {
	r := &Registry{}

	load := func(name, path string) (Runner, error) {
		s, err := NewSession(path)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("load %s model: %w", name, err)
		}
		log.Info("model loaded", "model", name, "path", path)
		r.sessions = append(r.sessions, s)
		return s, nil
	}

	var err error
	if r.Fire, err = load("fire", cfg.FireModelPath); err != nil {
		return nil, err
	}
	if r.Person, err = load("person", cfg.PersonModelPath); err != nil {
		return nil, err
	}
	if r.Pose, err = load("pose", cfg.PoseModelPath); err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases every loaded session.
func (r *Registry) Close() error {
	var errs []error
	for _, s := range r.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.sessions = nil
	return errors.Join(errs...)
}
