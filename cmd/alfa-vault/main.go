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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "alfa-vault",
	Short: "Alfa Vault CLI - encrypted blob storage with key rotation",
	Long: `Alfa Vault CLI drives an Alfa vault: a password-derived key
hierarchy guarding an encrypted blob store with a signed, hash-chained
snapshot log and an epoch-based rotation protocol.

This tool supports:
- Vault creation and unlock
- Blob import, retrieval, listing, and deletion
- Key rotation and snapshot chain verification
- Access policy inspection`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Commands are registered in their respective files:
	// - create.go: createCmd / unlockCmd
	// - metrics.go: serveMetricsCmd
	// - blob.go: importCmd / getCmd / listCmd / rmCmd
	// - rotate.go: rotateCmd / snapshotCmd / verifyChainCmd
	// - policy.go: policyCmd
}
