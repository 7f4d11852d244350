package alert

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/domain"
)

// Priority levels 1 and 2 demand an immediate response; anything below
// that is surfaced through the session summary instead of a webhook.
const notifyPriorityCeiling = 2

// DefaultCooldown suppresses repeat notifications for the same camera.
// Frame intervals are sub-second, without a cooldown one sustained
// emergency would fire hundreds of identical webhooks.
const DefaultCooldown = 30 * time.Second

// Engine decides whether a frame result warrants an emergency
// notification. Safe for concurrent use by multiple analysis sessions.
type Engine struct {
	cooldown time.Duration

	mu            sync.Mutex
	lastTriggered map[uuid.UUID]time.Time
}

func NewEngine(cooldown time.Duration) *Engine {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Engine{
		cooldown:      cooldown,
		lastTriggered: make(map[uuid.UUID]time.Time),
	}
}

// ShouldNotify reports whether the frame result should produce an
// emergency webhook for the given camera, and records the trigger time
// when it does.
func (e *Engine) ShouldNotify(cameraID uuid.UUID, priority *domain.EmergencyPriority, now time.Time) bool {
	if priority == nil || priority.Level > notifyPriorityCeiling {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if last, ok := e.lastTriggered[cameraID]; ok {
		if !now.After(last.Add(e.cooldown)) {
			return false
		}
	}

	e.lastTriggered[cameraID] = now
	return true
}

// Reset clears the cooldown state for one camera.
func (e *Engine) Reset(cameraID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.lastTriggered, cameraID)
}
