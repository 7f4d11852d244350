package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vigilsafe/vigil/internal/alert"
	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/pipeline"
	"github.com/vigilsafe/vigil/internal/ws"
)

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.AnalysisSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisSession), args.Error(1)
}

func (m *MockSessionRepository) ListByCamera(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error) {
	args := m.Called(ctx, cameraID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisSession), args.Error(1)
}

func (m *MockSessionRepository) Complete(ctx context.Context, session *domain.AnalysisSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) GetWebhooksByEvent(ctx context.Context, cameraID uuid.UUID, eventType string) ([]*alert.Webhook, error) {
	args := m.Called(ctx, cameraID, eventType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*alert.Webhook), args.Error(1)
}

func (m *MockNotifier) Send(ctx context.Context, webhook *alert.Webhook, event alert.EventPayload) error {
	args := m.Called(ctx, webhook, event)
	return args.Error(0)
}

// recordingHub captures broadcast events in order.
type recordingHub struct {
	mu     sync.Mutex
	events []ws.EventType
}

func (h *recordingHub) BroadcastToCamera(_ uuid.UUID, eventType ws.EventType, _ interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

func (h *recordingHub) Events() []ws.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ws.EventType(nil), h.events...)
}

// staticFactory serves canned frames regardless of locator.
type staticFactory struct {
	frames [][]byte
	err    error
}

func (f *staticFactory) Open(_ context.Context, _ string, intervalSeconds float64) (pipeline.FrameSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return pipeline.NewStaticSource(f.frames, intervalSeconds), nil
}

type stubRunner struct {
	data []float32
	dims []int64
}

func (s *stubRunner) Run(_ context.Context, _ []float32) ([]float32, []int64, error) {
	return s.data, s.dims, nil
}

func quietDetections() *stubRunner {
	boxes := [][]float32{{320, 320, 50, 50, 0.01, 0.01}}
	channels, num := len(boxes[0]), len(boxes)
	data := make([]float32, channels*num)
	for i, box := range boxes {
		for j, v := range box {
			data[j*num+i] = v
		}
	}
	return &stubRunner{data: data, dims: []int64{1, int64(channels), int64(num)}}
}

func quietPoses() *stubRunner {
	row := make([]float32, 56)
	row[4] = 0.1
	return &stubRunner{data: row, dims: []int64{1, 1, 56}}
}

func quietRegistry() *inference.Registry {
	return &inference.Registry{
		Fire:   quietDetections(),
		Person: quietDetections(),
		Pose:   quietPoses(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func framePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 640))
	for y := 0; y < 640; y++ {
		for x := 0; x < 640; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(cameraRepo CameraRepositoryInterface, sessionRepo SessionRepositoryInterface, sources SourceFactory, hub Broadcaster, notifier AlertNotifier) *AnalysisService {
	return NewAnalysisService(
		cameraRepo, sessionRepo, quietRegistry(), sources, hub,
		alert.NewEngine(alert.DefaultCooldown), notifier, testLogger(),
		0.5, 0,
	)
}

func TestAnalysisService_Analyze(t *testing.T) {
	camera := validCamera()
	camera.ID = uuid.New()

	cameraRepo := new(MockCameraRepository)
	cameraRepo.On("GetByID", mock.Anything, camera.ID).Return(camera, nil)

	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	sessionRepo.On("Complete", mock.Anything, mock.Anything).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("GetWebhooksByEvent", mock.Anything, camera.ID, alert.EventSessionCompleted).
		Return([]*alert.Webhook{}, nil)

	hub := &recordingHub{}
	frame := framePNG(t)
	sources := &staticFactory{frames: [][]byte{frame, frame, frame}}

	svc := newTestService(cameraRepo, sessionRepo, sources, hub, notifier)
	session, err := svc.Analyze(context.Background(), AnalyzeRequest{CameraID: camera.ID})

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, camera.ID, session.CameraID)
	assert.Equal(t, "/frames/hall-east", session.SourceLocator)
	assert.Equal(t, domain.SessionStatusCompleted, session.Status)
	require.NotNil(t, session.Summary)
	assert.Equal(t, 3, session.Summary.TotalFrames)
	assert.Len(t, session.Frames, 3)
	assert.Greater(t, session.Coverage.Area, 0.0)

	events := hub.Events()
	require.Len(t, events, 5)
	assert.Equal(t, ws.EventSessionStarted, events[0])
	assert.Equal(t, ws.EventFrameAnalyzed, events[1])
	assert.Equal(t, ws.EventSessionCompleted, events[4])

	cameraRepo.AssertExpectations(t)
	sessionRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestAnalysisService_Analyze_NoVideoSource(t *testing.T) {
	camera := validCamera()
	camera.ID = uuid.New()
	camera.VideoFileURL = ""
	camera.StreamURL = ""

	cameraRepo := new(MockCameraRepository)
	cameraRepo.On("GetByID", mock.Anything, camera.ID).Return(camera, nil)

	sessionRepo := new(MockSessionRepository)

	svc := newTestService(cameraRepo, sessionRepo, &staticFactory{}, &recordingHub{}, new(MockNotifier))
	_, err := svc.Analyze(context.Background(), AnalyzeRequest{CameraID: camera.ID})

	assert.ErrorIs(t, err, domain.ErrNoVideoSource)
	sessionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAnalysisService_Analyze_CameraNotFound(t *testing.T) {
	id := uuid.New()

	cameraRepo := new(MockCameraRepository)
	cameraRepo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrCameraNotFound)

	svc := newTestService(cameraRepo, new(MockSessionRepository), &staticFactory{}, &recordingHub{}, new(MockNotifier))
	_, err := svc.Analyze(context.Background(), AnalyzeRequest{CameraID: id})

	assert.ErrorIs(t, err, domain.ErrCameraNotFound)
}

func TestAnalysisService_Analyze_SourceOpenFailureMarksFailed(t *testing.T) {
	camera := validCamera()
	camera.ID = uuid.New()

	cameraRepo := new(MockCameraRepository)
	cameraRepo.On("GetByID", mock.Anything, camera.ID).Return(camera, nil)

	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	sessionRepo.On("MarkFailed", mock.Anything, mock.Anything).Return(nil)

	sources := &staticFactory{err: errors.New("no such directory")}

	svc := newTestService(cameraRepo, sessionRepo, sources, &recordingHub{}, new(MockNotifier))
	_, err := svc.Analyze(context.Background(), AnalyzeRequest{CameraID: camera.ID})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open frame source")
	sessionRepo.AssertCalled(t, "MarkFailed", mock.Anything, mock.Anything)
	sessionRepo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestAnalysisService_Analyze_ExplicitSourceOverridesCamera(t *testing.T) {
	camera := validCamera()
	camera.ID = uuid.New()

	cameraRepo := new(MockCameraRepository)
	cameraRepo.On("GetByID", mock.Anything, camera.ID).Return(camera, nil)

	sessionRepo := new(MockSessionRepository)
	sessionRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	sessionRepo.On("Complete", mock.Anything, mock.Anything).Return(nil)

	notifier := new(MockNotifier)
	notifier.On("GetWebhooksByEvent", mock.Anything, camera.ID, alert.EventSessionCompleted).
		Return([]*alert.Webhook{}, nil)

	sources := &staticFactory{frames: [][]byte{framePNG(t)}}

	svc := newTestService(cameraRepo, sessionRepo, sources, &recordingHub{}, notifier)
	session, err := svc.Analyze(context.Background(), AnalyzeRequest{
		CameraID: camera.ID,
		Source:   "/frames/override",
		Interval: 2.0,
	})

	require.NoError(t, err)
	assert.Equal(t, "/frames/override", session.SourceLocator)
	assert.Equal(t, 2.0, session.IntervalSeconds)
}

func TestPublishFrame_EmergencyDispatch(t *testing.T) {
	cameraID := uuid.New()
	sessionID := uuid.New()

	webhook := &alert.Webhook{
		ID:      uuid.New(),
		URL:     "https://ops.example/hooks/vigil",
		Secret:  "secret",
		Events:  []string{alert.EventEmergencyDetected},
		Enabled: true,
	}

	notifier := new(MockNotifier)
	notifier.On("GetWebhooksByEvent", mock.Anything, cameraID, alert.EventEmergencyDetected).
		Return([]*alert.Webhook{webhook}, nil)
	notifier.On("Send", mock.Anything, webhook, mock.MatchedBy(func(e alert.EventPayload) bool {
		return e.Type == alert.EventEmergencyDetected && e.CameraID == cameraID && e.SessionID == sessionID
	})).Return(nil)

	hub := &recordingHub{}
	svc := newTestService(new(MockCameraRepository), new(MockSessionRepository), &staticFactory{}, hub, notifier)

	result := &domain.FrameAnalysisResult{
		FrameID: 7,
		EmergencyPriority: &domain.EmergencyPriority{
			Level:          1,
			Classification: domain.PriorityCriticalEmergency,
		},
	}
	svc.publishFrame(context.Background(), cameraID, sessionID, result)

	events := hub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ws.EventFrameAnalyzed, events[0])
	assert.Equal(t, ws.EventEmergencyDetected, events[1])
	notifier.AssertExpectations(t)
}

func TestPublishFrame_LowPriorityNoDispatch(t *testing.T) {
	cameraID := uuid.New()

	notifier := new(MockNotifier)
	hub := &recordingHub{}
	svc := newTestService(new(MockCameraRepository), new(MockSessionRepository), &staticFactory{}, hub, notifier)

	result := &domain.FrameAnalysisResult{
		FrameID: 3,
		EmergencyPriority: &domain.EmergencyPriority{
			Level:          5,
			Classification: domain.PriorityNormal,
		},
	}
	svc.publishFrame(context.Background(), cameraID, uuid.New(), result)

	events := hub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, ws.EventFrameAnalyzed, events[0])
	notifier.AssertNotCalled(t, "GetWebhooksByEvent", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishFrame_CooldownSuppressesSecondEmergency(t *testing.T) {
	cameraID := uuid.New()
	sessionID := uuid.New()

	notifier := new(MockNotifier)
	notifier.On("GetWebhooksByEvent", mock.Anything, cameraID, alert.EventEmergencyDetected).
		Return([]*alert.Webhook{}, nil).Once()

	hub := &recordingHub{}
	svc := newTestService(new(MockCameraRepository), new(MockSessionRepository), &staticFactory{}, hub, notifier)

	result := &domain.FrameAnalysisResult{
		EmergencyPriority: &domain.EmergencyPriority{Level: 1, Classification: domain.PriorityCriticalEmergency},
	}
	svc.publishFrame(context.Background(), cameraID, sessionID, result)
	svc.publishFrame(context.Background(), cameraID, sessionID, result)

	// One frame event per call, only the first carries the emergency.
	events := hub.Events()
	require.Len(t, events, 3)
	assert.Equal(t, ws.EventEmergencyDetected, events[1])
	notifier.AssertNumberOfCalls(t, "GetWebhooksByEvent", 1)
}
