// Package pipeline orchestrates per-frame analysis and the per-session
// processing loop. Frames flow source -> preprocess -> detectors -> fusion;
// the stampede detector runs strictly after crowd and in frame order.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Frame is one sampled image from a video source, tagged with its offset in
// the source in seconds.
type Frame struct {
	Index     int
	Timestamp float64
	Data      []byte
}

// FrameSource supplies a time-ordered sequence of frames sampled at a fixed
// interval. Whether frames come from a live stream or a stored file is the
// adapter's concern; the pipeline sees the same contract either way.
// Next returns io.EOF when the source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// StaticSource serves pre-extracted frames from memory, timestamped at the
// given sampling interval. Used by tests and by callers that extract frames
// out of band.
type StaticSource struct {
	frames   [][]byte
	interval float64
	pos      int
}

func NewStaticSource(frames [][]byte, intervalSeconds float64) *StaticSource {
	return &StaticSource{frames: frames, interval: intervalSeconds}
}

func (s *StaticSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}

	frame := &Frame{
		Index:     s.pos,
		Timestamp: float64(s.pos) * s.interval,
		Data:      s.frames[s.pos],
	}
	s.pos++
	return frame, nil
}

func (s *StaticSource) Close() error { return nil }

// DirectorySource streams image files from a directory in lexical filename
// order. Frame extraction from video happens out of band (ffmpeg or the
// camera itself writing stills); this adapter picks up the results.
type DirectorySource struct {
	dir      string
	names    []string
	interval float64
	pos      int
}

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

func NewDirectorySource(dir string, intervalSeconds float64) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return &DirectorySource{dir: dir, names: names, interval: intervalSeconds}, nil
}

func (s *DirectorySource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.names) {
		return nil, io.EOF
	}

	data, err := os.ReadFile(filepath.Join(s.dir, s.names[s.pos]))
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", s.names[s.pos], err)
	}

	frame := &Frame{
		Index:     s.pos,
		Timestamp: float64(s.pos) * s.interval,
		Data:      data,
	}
	s.pos++
	return frame, nil
}

func (s *DirectorySource) Close() error { return nil }
