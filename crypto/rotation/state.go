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

// Package rotation implements the Rotation Controller (C9): epoch
// tracking, the re-encryption protocol driving a full key rotation,
// and a crash-resumable journal. Grounded on alfa_photos_vault/src/
// rotation.rs for the policy/state/history shape, and the teacher's
// crypto/rotation/rotator.go for the in-flight guard and rotation
// event history pattern, generalized from per-key rotation to
// per-vault epoch rotation.
package rotation

import "time"

// Policy configures when and how a vault rotates, mirroring
// rotation.rs's RotationPolicy.
type Policy struct {
	IntervalDays uint32 `json:"interval_days"`
	WarnDays     uint32 `json:"warn_days"`
	KeepEpochs   int    `json:"keep_epochs"`
	Auto         bool   `json:"auto"`
}

// DefaultPolicy mirrors RotationPolicy::default: rotate every 90
// days, warn 7 days out, keep history for the last 10 epochs.
func DefaultPolicy() Policy {
	return Policy{IntervalDays: 90, WarnDays: 7, KeepEpochs: 10, Auto: false}
}

// HistoryEntry records one completed rotation.
type HistoryEntry struct {
	Epoch   uint64    `json:"epoch"`
	Started time.Time `json:"started"`
	Ended   time.Time `json:"ended"`
}

// State is the persisted rotation state, written to db/rotation.json.
type State struct {
	CurrentEpoch uint64         `json:"current_epoch"`
	LastRotation time.Time      `json:"last_rotation"`
	NextRotation time.Time      `json:"next_rotation"`
	Policy       Policy         `json:"policy"`
	History      []HistoryEntry `json:"history"`
}

// NeedsRotation reports whether now is at or past NextRotation.
func (s State) NeedsRotation(now time.Time) bool {
	return !now.Before(s.NextRotation)
}
