package main

import (
	"encoding/json"
	"strings"

	"shopassist/internal/chatbot"

	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <text>",
		Short: "Print the intent assigned to a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := chatbot.DefaultPatternTable()
			if err != nil {
				return err
			}
			match := chatbot.NewClassifier(table).Classify(strings.Join(args, " "))
			return printJSON(cmd, match)
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <text>",
		Short: "Print the search parameters extracted from a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := chatbot.DefaultPatternTable()
			if err != nil {
				return err
			}
			params := chatbot.NewExtractor(table).Extract(strings.Join(args, " "))
			return printJSON(cmd, params)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
