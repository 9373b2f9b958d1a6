package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vulntor/recog/pkg/recog"
)

func newMatchCommand() *cobra.Command {
	var (
		dbFile   string
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "match [input ...]",
		Short: "Match input strings against fingerprint databases",
		Long:  "Match each input string (arguments, or stdin lines when no arguments are given) against the selected fingerprint databases and print the resolved fields.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := currentConfig(cmd)
			if err != nil {
				return err
			}

			databases, err := loadDatabases(cfg, dbFile)
			if err != nil {
				return err
			}

			inputs := args
			if len(inputs) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					inputs = append(inputs, scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read inputs: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			for _, input := range inputs {
				printMatches(out, databases, input, strategy)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbFile, "db", "", "Match against a single fingerprint database file")
	cmd.Flags().StringVar(&strategy, "strategy", "first", "Match strategy: first, best or all")

	return cmd
}

func printMatches(out io.Writer, databases []*recog.Database, input, strategy string) {
	switch strategy {
	case "best":
		var best recog.Match
		var bestDB *recog.Database
		for _, db := range databases {
			match, ok := db.BestMatch(input)
			if !ok {
				continue
			}
			if bestDB == nil || len(match.Fields) > len(best.Fields) {
				best, bestDB = match, db
			}
		}
		if bestDB == nil {
			fmt.Fprintf(out, "%s: no match\n", input)
			return
		}
		fmt.Fprintf(out, "%s: %s %s\n", input, bestDB.Key, formatFields(best.Fields))
	case "all":
		matched := false
		for _, db := range databases {
			for _, match := range db.AllMatches(input) {
				matched = true
				fmt.Fprintf(out, "%s: %s %s\n", input, db.Key, formatFields(match.Fields))
			}
		}
		if !matched {
			fmt.Fprintf(out, "%s: no match\n", input)
		}
	default:
		for _, db := range databases {
			if match, ok := db.FirstMatch(input); ok {
				fmt.Fprintf(out, "%s: %s %s\n", input, db.Key, formatFields(match.Fields))
				return
			}
		}
		fmt.Fprintf(out, "%s: no match\n", input)
	}
}

func formatFields(fields recog.Fields) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s=%q", name, fields[name]))
	}
	return strings.Join(pairs, " ")
}
