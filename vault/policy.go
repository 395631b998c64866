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

package vault

import "github.com/alfa-vault/alfa/policy"

// PolicyGet returns the vault's current access-policy configuration.
func (v *Vault) PolicyGet() policy.Config {
	return v.policyEngine.Config()
}

// PolicySet replaces the vault's access-policy configuration.
func (v *Vault) PolicySet(cfg policy.Config) {
	v.policyEngine.SetConfig(cfg)
}

// Stats returns a reporting snapshot of unlock/lockdown/threat state.
func (v *Vault) Stats() policy.Stats {
	return v.policyEngine.Stats()
}

// CurrentEpoch returns the vault's current key-rotation epoch.
func (v *Vault) CurrentEpoch() uint64 {
	return v.rotationCtrl.CurrentEpoch()
}

// NeedsRotation reports whether the configured rotation interval has
// elapsed since the last rotation.
func (v *Vault) NeedsRotation() bool {
	return v.rotationCtrl.NeedsRotation()
}
