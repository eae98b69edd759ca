// bundoc-session inspects Bundoc session tokens: parse them, merge two
// observations, or check whether one token advances another. Useful when
// debugging session-consistency headers.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bundoc-go/session"
)

func main() {
	root := &cobra.Command{
		Use:           "bundoc-session",
		Short:         "Inspect Bundoc session tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(parseCmd(), mergeCmd(), advanceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <token>",
		Short: "Parse a vector or partition session token and print its components",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]

			if token, err := session.ParsePartitionSessionToken(text); err == nil {
				fmt.Printf("partition key range: %s\n", token.PKRangeID)
				printVector(token.Vector)
				return nil
			}

			token, err := session.ParseVectorSessionToken(text)
			if err != nil {
				return err
			}
			printVector(token)
			return nil
		},
	}
}

func mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <token-a> <token-b>",
		Short: "Merge two vector session tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := session.ParseVectorSessionToken(args[0])
			if err != nil {
				return fmt.Errorf("token a: %w", err)
			}
			b, err := session.ParseVectorSessionToken(args[1])
			if err != nil {
				return fmt.Errorf("token b: %w", err)
			}
			merged, err := a.Merge(b)
			if err != nil {
				return err
			}
			fmt.Println(merged)
			return nil
		},
	}
}

func advanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <current> <other>",
		Short: "Check whether <other> represents forward progress over <current>",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := session.ParseVectorSessionToken(args[0])
			if err != nil {
				return fmt.Errorf("current token: %w", err)
			}
			other, err := session.ParseVectorSessionToken(args[1])
			if err != nil {
				return fmt.Errorf("other token: %w", err)
			}
			ok, err := current.CanAdvanceTo(other)
			if err != nil {
				return err
			}
			fmt.Println(ok)
			return nil
		},
	}
}

func printVector(token session.VectorSessionToken) {
	fmt.Printf("version:    %d\n", token.Version)
	fmt.Printf("global LSN: %d\n", token.GlobalLSN)

	regions := make([]session.RegionID, 0, len(token.RegionalLSNs))
	for id := range token.RegionalLSNs {
		regions = append(regions, id)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	for _, id := range regions {
		fmt.Printf("region %d:   %d\n", id, token.RegionalLSNs[id])
	}
}
