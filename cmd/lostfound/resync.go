package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func resyncCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "resync",
		Short: "Recount claims and repair item counters that drifted",
		Long: `resync recounts the claim ledger for every item and overwrites counters
that disagree with it. Counters drift only when a counter update failed after
the claim itself was recorded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			closeLog, err := setupLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer closeLog()

			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.close()

			report, err := b.claims.Resync(cmd.Context())
			if err != nil {
				return fmt.Errorf("resyncing counters: %w", err)
			}

			fmt.Printf("Checked %d items.\n", report.Checked)
			if len(report.Repaired) == 0 {
				color.New(color.FgGreen).Println("All counters match the ledger.")
				return nil
			}
			yellow := color.New(color.FgYellow)
			for _, r := range report.Repaired {
				fmt.Printf("  %s  %s  %d -> %d\n", yellow.Sprint("REPAIRED"), r.Ref, r.Before, r.After)
			}
			return nil
		},
	}
}
