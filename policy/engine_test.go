package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

func TestEngine_NewNotInLockdown(t *testing.T) {
	e := NewEngine(DefaultConfig())
	assert.False(t, e.IsLockdownActive())
	assert.NoError(t, e.CheckAccess())
}

func TestEngine_RecordEvent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.RecordEvent(Event{
		Timestamp:  time.Now(),
		Type:       EventUnlock,
		KeyPurpose: "ALFA:config",
		Success:    true,
	})

	stats := e.Stats()
	assert.Equal(t, 1, stats.TotalEvents)
}

func TestEngine_LockdownAfterFailures(t *testing.T) {
	config := DefaultConfig()
	config.MaxFailedAttempts = 3
	e := NewEngine(config)

	for i := 0; i < 3; i++ {
		e.RecordEvent(Event{Timestamp: time.Now(), Type: EventUnlock, Success: false})
	}

	assert.True(t, e.IsLockdownActive())
	assert.ErrorIs(t, e.CheckAccess(), vaulterrors.ErrLockdownActive)
}

func TestEngine_LockdownExpires(t *testing.T) {
	config := DefaultConfig()
	config.MaxFailedAttempts = 1
	config.LockoutSeconds = 0
	e := NewEngine(config)

	e.RecordEvent(Event{Timestamp: time.Now(), Type: EventUnlock, Success: false})
	assert.True(t, e.lockdownActive)

	time.Sleep(5 * time.Millisecond)
	assert.False(t, e.IsLockdownActive())
}

func TestEngine_ManualLockdownExit(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.EnterLockdown("manual test")
	assert.True(t, e.IsLockdownActive())

	e.ExitLockdown()
	assert.False(t, e.IsLockdownActive())
}

func TestEngine_AllowedHoursGate(t *testing.T) {
	config := DefaultConfig()
	currentHour := time.Now().Hour()
	otherHour := (currentHour + 12) % 24
	config.AllowedHours = []int{otherHour}
	e := NewEngine(config)

	assert.ErrorIs(t, e.CheckAccess(), vaulterrors.ErrPolicyViolation)
}

func TestEngine_CriticalThreatGate(t *testing.T) {
	e := NewEngine(DefaultConfig())
	e.mu.Lock()
	e.level = ThreatCritical
	e.mu.Unlock()

	assert.ErrorIs(t, e.CheckAccess(), vaulterrors.ErrThreatDetected)
}
