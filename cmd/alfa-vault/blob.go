package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfa-vault/alfa/vault"
)

var outputPath string

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a file as a new blob",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var getCmd = &cobra.Command{
	Use:   "get [blob-id]",
	Short: "Decrypt a blob to stdout or --output",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every blob id in the vault",
	RunE:  runList,
}

var rmCmd = &cobra.Command{
	Use:   "rm [blob-id]",
	Short: "Delete a blob",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rmCmd)

	getCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write plaintext to this file instead of stdout")
}

func openUnlocked() (*vault.Vault, error) {
	v, err := vault.Open(vaultRoot)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !v.IsUnlocked() {
		password, err := readPassword("Vault password: ")
		if err != nil {
			return nil, err
		}
		if err := v.Unlock(password); err != nil {
			return nil, fmt.Errorf("unlock vault: %w", err)
		}
	}
	return v, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	v, err := openUnlocked()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	id, err := v.ImportBlob(data, args[0])
	if err != nil {
		return fmt.Errorf("import blob: %w", err)
	}
	fmt.Println(id)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	v, err := openUnlocked()
	if err != nil {
		return err
	}
	data, err := v.GetBlob(args[0])
	if err != nil {
		return fmt.Errorf("get blob: %w", err)
	}
	if outputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(outputPath, data, 0600)
}

func runList(cmd *cobra.Command, args []string) error {
	v, err := openUnlocked()
	if err != nil {
		return err
	}
	ids, err := v.ListBlobs()
	if err != nil {
		return fmt.Errorf("list blobs: %w", err)
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	v, err := openUnlocked()
	if err != nil {
		return err
	}
	if err := v.DeleteBlob(args[0]); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	fmt.Println("deleted")
	return nil
}
