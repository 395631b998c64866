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

package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/alfa-vault/alfa/internal/atomicfile"
)

// Store persists snapshots as independent JSON files in dir, one per
// epoch, per spec.md §6.
type Store struct {
	dir string
}

// NewStore opens (creating if absent) a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Append writes s as a new file and prunes the oldest entries beyond
// maxSnapshots. Pruning never rewrites a retained snapshot's
// prev_hash, preserving contiguity of the tail (spec.md §4.8); it
// only removes whole files from the front of the chronological list.
func (st *Store) Append(s Snapshot, maxSnapshots int) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	path := filepath.Join(st.dir, FileName(s))
	if err := atomicfile.Write(path, data, 0600); err != nil {
		return err
	}

	if maxSnapshots <= 0 {
		return nil
	}
	return st.pruneLocked(maxSnapshots)
}

func (st *Store) pruneLocked(maxSnapshots int) error {
	all, err := st.listFiles()
	if err != nil {
		return err
	}
	if len(all) <= maxSnapshots {
		return nil
	}
	toRemove := all[:len(all)-maxSnapshots]
	for _, name := range toRemove {
		if err := os.Remove(filepath.Join(st.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("prune snapshot %s: %w", name, err)
		}
	}
	return nil
}

// listFiles returns snapshot file names in chronological (filename)
// order; the snapshot_<epoch:06>_<timestamp>.json naming sorts
// correctly as plain strings.
func (st *Store) listFiles() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads every snapshot in dir, in chronological order.
func (st *Store) Load() ([]Snapshot, error) {
	names, err := st.listFiles()
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(st.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read snapshot %s: %w", name, err)
		}
		var s Snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// Latest returns the most recently appended snapshot, if any.
func (st *Store) Latest() (Snapshot, bool, error) {
	all, err := st.Load()
	if err != nil {
		return Snapshot{}, false, err
	}
	if len(all) == 0 {
		return Snapshot{}, false, nil
	}
	return all[len(all)-1], true, nil
}
