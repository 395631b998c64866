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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnlockAttempts tracks unlock attempts by outcome.
	UnlockAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "unlock_attempts_total",
			Help:      "Total number of unlock attempts",
		},
		[]string{"outcome"}, // success, auth_failed, lockdown
	)

	// LockdownState reflects whether the vault is currently in lockdown.
	LockdownState = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "lockdown_active",
			Help:      "1 if the vault is currently in lockdown, 0 otherwise",
		},
	)

	// ThreatScore tracks the current computed threat score (0-100).
	ThreatScore = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "threat_score",
			Help:      "Current access policy threat score",
		},
	)

	// RotationsCompleted tracks completed key rotations.
	RotationsCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "rotations_total",
			Help:      "Total number of completed key rotations",
		},
		[]string{"outcome"}, // success, failed
	)

	// RotationDuration tracks how long a full rotation took.
	RotationDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "rotation_duration_seconds",
			Help:      "Duration of a full key rotation in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	// SnapshotsCreated tracks snapshot log entries created.
	SnapshotsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "vault",
			Name:      "snapshots_created_total",
			Help:      "Total number of snapshots created",
		},
	)

	// BlobsStored tracks the number of currently stored blobs.
	BlobsStored = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "photovault",
			Name:      "blobs_stored",
			Help:      "Number of blobs currently stored",
		},
	)

	// BlobsImported counts successful import_blob calls.
	BlobsImported = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photovault",
			Name:      "blobs_imported_total",
			Help:      "Total number of blobs imported",
		},
	)

	// BlobsDeleted counts successful delete_blob calls.
	BlobsDeleted = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "photovault",
			Name:      "blobs_deleted_total",
			Help:      "Total number of blobs deleted",
		},
	)
)
