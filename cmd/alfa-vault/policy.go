package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect the vault's access policy and threat state",
	RunE:  runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

func runPolicy(cmd *cobra.Command, args []string) error {
	v, err := openUnlocked()
	if err != nil {
		return err
	}

	cfg := v.PolicyGet()
	stats := v.Stats()

	fmt.Printf("max_failed_attempts=%d lockout_seconds=%d allowed_hours=%v\n",
		cfg.MaxFailedAttempts, cfg.LockoutSeconds, cfg.AllowedHours)
	fmt.Printf("failed_attempts=%d lockdown_active=%v threat_level=%s\n",
		stats.FailedAttempts, stats.LockdownActive, stats.ThreatLevel)
	fmt.Printf("current_epoch=%d needs_rotation=%v\n", v.CurrentEpoch(), v.NeedsRotation())
	return nil
}
