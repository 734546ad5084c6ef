package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planwright/planwright/internal/engine"
)

func newSearchCmd(a *app) *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Free-text search over plans, tasks, decisions, and memories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.mgr.Search(args[0], engine.Page{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(results)
			}
			for _, r := range results {
				fmt.Printf("%-8s  %s  %s\n", r.Kind, idStyle.Render(r.ID), r.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "skip the first N results")
	cmd.Flags().IntVar(&limit, "limit", 0, "return at most N results (0 = all)")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the history log, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.mgr.History()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(entries)
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-18s  %s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.EntityID)
				if e.Note != "" {
					line += "  " + idStyle.Render(e.Note)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	return cmd
}
