package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alfa-vault/alfa/vault"
)

var vaultRoot string

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new vault",
	RunE:  runCreate,
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock an existing vault",
	RunE:  runUnlock,
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(unlockCmd)

	rootCmd.PersistentFlags().StringVarP(&vaultRoot, "root", "r", ".", "vault root directory")
}

func runCreate(cmd *cobra.Command, args []string) error {
	password, err := readPassword("New vault password: ")
	if err != nil {
		return err
	}
	v, err := vault.Create(vaultRoot, password)
	if err != nil {
		return fmt.Errorf("create vault: %w", err)
	}
	fmt.Printf("vault created at %s, unlocked=%v\n", vaultRoot, v.IsUnlocked())
	return nil
}

func runUnlock(cmd *cobra.Command, args []string) error {
	v, err := vault.Open(vaultRoot)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}
	password, err := readPassword("Vault password: ")
	if err != nil {
		return err
	}
	if err := v.Unlock(password); err != nil {
		return fmt.Errorf("unlock vault: %w", err)
	}
	fmt.Println("vault unlocked")
	return nil
}
