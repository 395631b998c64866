// Alfa Vault - password-derived key hierarchy and envelope encryption
// for an offline photo vault.
// Copyright (C) 2025 Alfa Vault contributors
//
// This file is part of Alfa Vault.
//
// Alfa Vault is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Alfa Vault is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Alfa Vault. If not, see <https://www.gnu.org/licenses/>.

package policy

import (
	"sync"
	"time"

	"github.com/alfa-vault/alfa/internal/metrics"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

const maxEvents = 1000

// Stats is a point-in-time snapshot of the engine's internal state,
// returned by Stats() for health/reporting surfaces.
type Stats struct {
	TotalEvents    int
	FailedAttempts uint32
	LockdownActive bool
	ThreatLevel    ThreatLevel
	TopKeys        map[string]uint64
	LastSuccess    time.Time
}

// Engine is the mutable access-policy singleton. One Engine guards
// one vault; callers funnel every unlock and key derivation through
// CheckAccess before touching key material.
type Engine struct {
	mu sync.RWMutex

	events []Event

	hourlyAccess [24]uint32
	keyUsage     map[string]uint64

	config Config

	lockdownActive  bool
	lockdownStarted time.Time

	failedAttempts uint32
	lastSuccess    time.Time

	metrics Metrics
	level   ThreatLevel
}

// NewEngine constructs an Engine with the given config.
func NewEngine(config Config) *Engine {
	return &Engine{
		config:   config,
		keyUsage: make(map[string]uint64),
	}
}

// Config returns the engine's current policy configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// SetConfig replaces the policy configuration.
func (e *Engine) SetConfig(config Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
}

// RecordEvent appends event to the history, updates the usage
// profile, the failed-attempt counter, and re-derives the threat
// level. Lock ordering: policy state is mutated under e.mu alone; no
// nested locks are taken, so no ordering discipline beyond this is
// required here.
func (e *Engine) RecordEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.updateProfileLocked(event)

	if event.Success {
		e.failedAttempts = 0
		e.lastSuccess = event.Timestamp
	} else if event.Type == EventUnlock {
		e.failedAttempts++
	}

	if len(e.events) >= maxEvents {
		e.events = e.events[1:]
	}
	e.events = append(e.events, event)

	e.checkAndUpdatePolicyLocked()
}

func (e *Engine) updateProfileLocked(event Event) {
	hour := event.Timestamp.Hour()
	e.hourlyAccess[hour]++
	if event.KeyPurpose != "" {
		e.keyUsage[event.KeyPurpose]++
	}
}

func (e *Engine) checkAndUpdatePolicyLocked() {
	if e.failedAttempts >= e.config.MaxFailedAttempts {
		e.enterLockdownLocked()
		return
	}

	currentHour := time.Now().Hour()
	var total uint32
	for _, v := range e.hourlyAccess {
		total += v
	}
	avg := total / 24
	unusual := e.hourlyAccess[currentHour] < avg/2

	e.metrics.FailedAttempts24h = e.failedAttempts
	e.metrics.UnusualHourAccess = unusual
	e.metrics.LastAccess = time.Now()
	e.level = ThreatLevelFromScore(e.calculateThreatScoreLocked())
	metrics.ThreatScore.Set(float64(e.calculateThreatScoreLocked()))
}

func (e *Engine) calculateThreatScoreLocked() int {
	score := int(e.metrics.FailedAttempts24h) * 10
	if e.metrics.UnusualHourAccess {
		score += 20
	}
	if e.metrics.RapidAccessAttempt {
		score += 30
	}
	if e.metrics.NewDeviceDetected {
		score += 15
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ThreatScore returns the current 0-100 threat score.
func (e *Engine) ThreatScore() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.calculateThreatScoreLocked()
}

// ThreatLevel returns the current threat level.
func (e *Engine) ThreatLevel() ThreatLevel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

// EnterLockdown forces the engine into lockdown, recording an event
// with reason as its source.
func (e *Engine) EnterLockdown(reason string) {
	e.mu.Lock()
	e.enterLockdownLocked()
	e.mu.Unlock()

	e.RecordEvent(Event{
		Timestamp: time.Now(),
		Type:      EventLockdown,
		Success:   false,
		Source:    reason,
	})
}

func (e *Engine) enterLockdownLocked() {
	e.lockdownActive = true
	e.lockdownStarted = time.Now()
	metrics.LockdownState.Set(1)
}

// IsLockdownActive reports whether the engine is currently in
// lockdown, lazily transitioning to Locked (lockdown cleared) once
// the lockout window has elapsed. No background timer is required:
// every caller of CheckAccess re-evaluates this on each call.
func (e *Engine) IsLockdownActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lockdownActive {
		return false
	}

	elapsed := time.Since(e.lockdownStarted)
	if elapsed > time.Duration(e.config.LockoutSeconds)*time.Second {
		e.exitLockdownLocked()
		return false
	}
	return true
}

// ExitLockdown manually clears lockdown state (admin override).
func (e *Engine) ExitLockdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exitLockdownLocked()
}

func (e *Engine) exitLockdownLocked() {
	e.lockdownActive = false
	e.lockdownStarted = time.Time{}
	e.failedAttempts = 0
	metrics.LockdownState.Set(0)
}

// CheckAccess runs the ordered gates from spec: lockdown, then
// allowed-hours, then critical threat level. It returns nil if the
// caller may proceed, otherwise a sentinel from vaulterrors. No key
// material is touched before this call succeeds.
func (e *Engine) CheckAccess() error {
	if e.IsLockdownActive() {
		return vaulterrors.ErrLockdownActive
	}

	e.mu.RLock()
	allowed := e.config.IsAllowedHour(time.Now().Hour())
	level := e.level
	e.mu.RUnlock()

	if !allowed {
		return vaulterrors.ErrPolicyViolation
	}
	if level == ThreatCritical {
		return vaulterrors.ErrThreatDetected
	}
	return nil
}

// Metrics returns a copy of the current policy metrics.
func (e *Engine) Metrics() Metrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}

// Stats returns a reporting snapshot of the engine.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	top := make(map[string]uint64, len(e.keyUsage))
	for k, v := range e.keyUsage {
		top[k] = v
	}

	return Stats{
		TotalEvents:    len(e.events),
		FailedAttempts: e.failedAttempts,
		LockdownActive: e.lockdownActive,
		ThreatLevel:    e.level,
		TopKeys:        top,
		LastSuccess:    e.lastSuccess,
	}
}
