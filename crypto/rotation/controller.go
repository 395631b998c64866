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

package rotation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alfa-vault/alfa/internal/atomicfile"
	"github.com/alfa-vault/alfa/internal/logger"
	"github.com/alfa-vault/alfa/internal/metrics"
	"github.com/alfa-vault/alfa/internal/vaulterrors"
)

const stateFileName = "rotation.json"
const journalFileName = "rotation.json.tmp"

// Reencryptor re-encrypts one blob (and its index record, and
// thumbnail if any) under newEpoch. Implemented by
// photovault.Vault.ReencryptBlob; the rotation package only depends
// on this function signature, not on the photovault package, so the
// two don't cycle.
type Reencryptor func(blobID string, newEpoch uint64) error

// SnapshotCreator appends a signed snapshot for the vault's state
// after epoch has been fully rotated. Implemented by the top-level
// vault, which has access to the signing key and KDF params the
// rotation controller does not.
type SnapshotCreator func(epoch uint64) error

// journal is the crash-resumable record of a rotation in progress,
// resolving spec.md Open Question Q2 (option a: a rotation journal).
// While it exists on disk, the epoch counter has NOT yet advanced; a
// restart re-reads it and resumes from Completed rather than
// restarting from scratch or leaving the vault in a half-rotated
// state.
type journal struct {
	OldEpoch  uint64          `json:"old_epoch"`
	NewEpoch  uint64          `json:"new_epoch"`
	Started   time.Time       `json:"started"`
	Completed map[string]bool `json:"completed"`
}

// Controller tracks a vault's current epoch and orchestrates the
// re-encryption protocol on rotate. One Controller guards one
// vault's db/rotation.json.
type Controller struct {
	mu sync.Mutex

	dir   string
	state State
	log   logger.Logger
}

// Open loads db/rotation.json from dir, initializing epoch 1 with
// policy if the file doesn't exist yet. If a rotation.json.tmp
// journal is found (a prior rotation crashed mid-flight), it is left
// in place for Rotate to resume — Open itself never discards it.
func Open(dir string, policy Policy, log logger.Logger) (*Controller, error) {
	if log == nil {
		log = logger.NewDefaultLogger()
	}
	c := &Controller{dir: dir, log: log.WithFields(logger.String("component", "rotation"))}

	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read rotation state: %w", err)
		}
		now := time.Now().UTC()
		c.state = State{
			CurrentEpoch: 1,
			LastRotation: now,
			NextRotation: now.AddDate(0, 0, int(policy.IntervalDays)),
			Policy:       policy,
		}
		if err := c.persistLocked(); err != nil {
			return nil, err
		}
		return c, nil
	}

	if err := json.Unmarshal(data, &c.state); err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrVaultCorrupted, err)
	}
	return c, nil
}

func (c *Controller) persistLocked() error {
	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rotation state: %w", err)
	}
	return atomicfile.Write(filepath.Join(c.dir, stateFileName), data, 0600)
}

func (c *Controller) journalPath() string {
	return filepath.Join(c.dir, journalFileName)
}

func (c *Controller) readJournal() (*journal, error) {
	data, err := os.ReadFile(c.journalPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rotation journal: %w", err)
	}
	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrVaultCorrupted, err)
	}
	return &j, nil
}

func (c *Controller) writeJournal(j journal) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rotation journal: %w", err)
	}
	return atomicfile.Write(c.journalPath(), data, 0600)
}

func (c *Controller) clearJournal() error {
	if err := os.Remove(c.journalPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove rotation journal: %w", err)
	}
	return nil
}

// CurrentEpoch returns the vault's current (fully rotated) epoch.
func (c *Controller) CurrentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentEpoch
}

// State returns a copy of the controller's persisted state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NeedsRotation reports whether the interval has elapsed.
func (c *Controller) NeedsRotation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.NeedsRotation(time.Now())
}

// ResumePending reports whether an interrupted rotation's journal is
// present on disk, i.e. a previous Rotate call crashed mid-flight.
func (c *Controller) ResumePending() (bool, error) {
	j, err := c.readJournal()
	if err != nil {
		return false, err
	}
	return j != nil, nil
}

const maxConcurrentReencrypt = 8

// Rotate runs the full rotation protocol from spec.md §4.9:
//  1. new_epoch = current_epoch + 1 (or resumed from an existing
//     journal, so a crash mid-rotation restarts from the same target
//     epoch rather than skipping ahead).
//  2. every blob id is re-encrypted under the new epoch key via
//     reencrypt, bounded to maxConcurrentReencrypt in flight via
//     errgroup; per-blob atomicity (write-temp-then-rename) is the
//     callee's responsibility.
//  3. only once every blob has been confirmed does the epoch counter
//     advance and the rotation.json.tmp journal get removed — whole-
//     rotation durability from spec.md §4.9.
//  4. a history entry is appended and trimmed to Policy.KeepEpochs.
//  5. snapshotCreator is invoked with the new epoch.
//
// If the process crashes partway through, the journal on disk
// records which blobs already moved to the new epoch; calling Rotate
// again with the same blobIDs resumes rather than re-rotating
// already-moved blobs or losing track of the target epoch.
func (c *Controller) Rotate(blobIDs []string, reencrypt Reencryptor, snapshotCreator SnapshotCreator) error {
	start := time.Now()

	c.mu.Lock()
	oldEpoch := c.state.CurrentEpoch
	newEpoch := oldEpoch + 1
	c.mu.Unlock()

	j, err := c.readJournal()
	if err != nil {
		return err
	}
	if j != nil && j.OldEpoch == oldEpoch {
		newEpoch = j.NewEpoch
	} else {
		j = &journal{OldEpoch: oldEpoch, NewEpoch: newEpoch, Started: time.Now().UTC(), Completed: map[string]bool{}}
		if err := c.writeJournal(*j); err != nil {
			return err
		}
	}

	var jmu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentReencrypt)

	for _, id := range blobIDs {
		id := id
		jmu.Lock()
		done := j.Completed[id]
		jmu.Unlock()
		if done {
			continue
		}
		g.Go(func() error {
			if err := reencrypt(id, newEpoch); err != nil {
				return fmt.Errorf("reencrypt blob %s: %w", id, err)
			}
			jmu.Lock()
			j.Completed[id] = true
			snapshot := journal{
				OldEpoch:  j.OldEpoch,
				NewEpoch:  j.NewEpoch,
				Started:   j.Started,
				Completed: make(map[string]bool, len(j.Completed)),
			}
			for k, v := range j.Completed {
				snapshot.Completed[k] = v
			}
			// Write under jmu so journal files land in Completed order and
			// an older snapshot never overwrites a newer one.
			err := c.writeJournal(snapshot)
			jmu.Unlock()
			return err
		})
	}

	if err := g.Wait(); err != nil {
		metrics.RotationsCompleted.WithLabelValues("failed").Inc()
		c.log.Error("rotation failed, journal preserved for resume", logger.Error(err), logger.Int("target_epoch", int(newEpoch)))
		return err
	}

	c.mu.Lock()
	now := time.Now().UTC()
	c.state.CurrentEpoch = newEpoch
	c.state.LastRotation = now
	c.state.NextRotation = now.AddDate(0, 0, int(c.state.Policy.IntervalDays))
	c.state.History = append(c.state.History, HistoryEntry{Epoch: newEpoch, Started: j.Started, Ended: now})
	if keep := c.state.Policy.KeepEpochs; keep > 0 && len(c.state.History) > keep {
		c.state.History = c.state.History[len(c.state.History)-keep:]
	}
	persistErr := c.persistLocked()
	c.mu.Unlock()

	if persistErr != nil {
		return persistErr
	}
	if err := c.clearJournal(); err != nil {
		return err
	}

	if snapshotCreator != nil {
		if err := snapshotCreator(newEpoch); err != nil {
			return fmt.Errorf("create post-rotation snapshot: %w", err)
		}
	}

	metrics.RotationsCompleted.WithLabelValues("success").Inc()
	metrics.RotationDuration.Observe(time.Since(start).Seconds())
	c.log.Info("rotation complete", logger.Int("new_epoch", int(newEpoch)), logger.Int("blobs", len(blobIDs)))
	return nil
}
