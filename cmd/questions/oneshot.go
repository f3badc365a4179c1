package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cwygoda/questions/internal/domain"
)

func newDivisorsCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "divisors N",
		Short: "Print the positive divisors of N as a JSON array",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("N must be an integer: %w", err)
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Divisors.Workers
			}

			divisors, err := domain.DivisorFinder{Workers: workers}.Find(n)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(divisors)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "number of buckets (default GOMAXPROCS)")
	return cmd
}

func newCheckLinksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-links [FILE]",
		Short: "Verify the http(s) anchors in FILE (or stdin) and print the results",
		Long: `check-links extracts every <a href="http(s)://..."> from FILE, or from
stdin when FILE is "-" or omitted, probes each distinct URL once and prints
one JSON object per URL. It exits non-zero if any link is broken.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			results := a.linkChecker().Check(cmd.Context(), text)

			enc := json.NewEncoder(cmd.OutOrStdout())
			broken := 0
			for _, r := range results {
				if !r.IsValid {
					broken++
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Summary: %d checked, %d broken\n", len(results), broken)
			if broken > 0 {
				return fmt.Errorf("%d broken link(s)", broken)
			}
			return nil
		},
	}
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
