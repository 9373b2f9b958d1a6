package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vulntor/recog/pkg/recog"
)

func newVerifyCommand() *cobra.Command {
	var dbFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay embedded examples against their own fingerprints",
		Long:  "Verify database integrity by matching every fingerprint's examples against its own pattern and comparing declared attribute expectations with the resolved fields.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := currentConfig(cmd)
			if err != nil {
				return err
			}

			databases, err := loadDatabases(cfg, dbFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			passed, failed := 0, 0
			for _, db := range databases {
				for _, report := range recog.VerifyDatabase(db) {
					for _, ex := range report.Examples {
						if ex.OK() {
							passed++
							continue
						}
						failed++
						if !ex.Matched {
							fmt.Fprintln(out, color.RedString("  ✗ %s: pattern %q did not match example %q", db.Key, report.Fingerprint.Pattern(), ex.Example.Text))
							continue
						}
						for _, mismatch := range ex.Mismatches {
							fmt.Fprintln(out, color.RedString("  ✗ %s: field %q: want %q, got %q", db.Key, mismatch.Name, mismatch.Want, mismatch.Got))
						}
					}
				}
			}

			fmt.Fprintln(out, color.GreenString("  ✓ Passed: %d", passed))
			if failed > 0 {
				fmt.Fprintln(out, color.RedString("  ✗ Failed: %d", failed))
				return fmt.Errorf("%d example(s) failed verification", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbFile, "db", "", "Verify a single fingerprint database file")

	return cmd
}
