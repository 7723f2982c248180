package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"resumind/internal/resumes"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored resume records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeFn, err := service(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		items, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		return writeList(cmd.OutOrStdout(), items)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := service(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		record, err := svc.Record(cmd.Context(), args[0])
		if err != nil {
			return errors.New(resumes.UserMessage(err))
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete records and their files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := service(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		items, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		listing := resumes.NewListing(items)
		byID := make(map[string]resumes.Item, len(items))
		for _, item := range items {
			byID[item.Record.ID] = item
		}

		var errs []error
		for _, id := range args {
			item, ok := byID[id]
			if !ok {
				errs = append(errs, fmt.Errorf("%s: %s", id, resumes.UserMessage(resumes.ErrNotFound)))
				continue
			}
			if err := listing.Delete(cmd.Context(), svc, item); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d record(s) left\n", len(listing.Items()))
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, showCmd, deleteCmd)
}

func writeList(w io.Writer, items []resumes.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCOMPANY\tJOB TITLE\tSCORE")
	for _, item := range items {
		score := "-"
		if item.Feedback != nil {
			score = strconv.FormatFloat(item.Feedback.OverallScore, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.Record.ID,
			item.Status,
			orDash(item.Record.CompanyName),
			orDash(item.Record.JobTitle),
			score,
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
