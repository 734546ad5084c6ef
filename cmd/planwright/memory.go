package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planwright/planwright/internal/engine"
)

func newMemoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage context memory entries",
	}

	var priority int
	var disabled bool
	addCmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem, err := a.mgr.AddMemory(args[0], priority, !disabled)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(mem)
			}
			fmt.Printf("%s  [%d]  %s\n", idStyle.Render(mem.ID), mem.Priority, mem.Content)
			return nil
		},
	}
	addCmd.Flags().IntVar(&priority, "priority", 50, "priority 0..100")
	addCmd.Flags().BoolVar(&disabled, "disabled", false, "create the entry disabled")

	var enabledOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List memory entries by priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			mems, err := a.mgr.ListMemories(enabledOnly)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(mems)
			}
			for _, mem := range mems {
				state := "on"
				if !mem.Enabled {
					state = "off"
				}
				fmt.Printf("%s  [%d] (%s)  %s\n", idStyle.Render(mem.ID), mem.Priority, state, mem.Content)
			}
			return nil
		},
	}
	listCmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only enabled entries")

	var setPriority int
	var enable, disable bool
	updateCmd := &cobra.Command{
		Use:   "update <memory-id>",
		Short: "Update a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := engine.MemoryUpdate{}
			if cmd.Flags().Changed("priority") {
				update.Priority = &setPriority
			}
			if enable {
				t := true
				update.Enabled = &t
			}
			if disable {
				f := false
				update.Enabled = &f
			}
			mem, err := a.mgr.UpdateMemory(args[0], update)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(mem)
			}
			fmt.Printf("%s  [%d]  %s\n", idStyle.Render(mem.ID), mem.Priority, mem.Content)
			return nil
		},
	}
	updateCmd.Flags().IntVar(&setPriority, "priority", 50, "priority 0..100")
	updateCmd.Flags().BoolVar(&enable, "enable", false, "enable the entry")
	updateCmd.Flags().BoolVar(&disable, "disable", false, "disable the entry")

	removeCmd := &cobra.Command{
		Use:   "remove <memory-id>",
		Short: "Remove a memory entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.RemoveMemory(args[0]); err != nil {
				return err
			}
			fmt.Println("removed", args[0])
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd, updateCmd, removeCmd)
	return cmd
}

func newDecisionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decision",
		Short: "Record and list project decisions",
	}

	var rationale string
	recordCmd := &cobra.Command{
		Use:   "record <title>",
		Short: "Record a decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dec, err := a.mgr.RecordDecision(args[0], rationale)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(dec)
			}
			fmt.Printf("%s  %s\n", idStyle.Render(dec.ID), dec.Title)
			return nil
		},
	}
	recordCmd.Flags().StringVar(&rationale, "rationale", "", "why the decision was made")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			decs, err := a.mgr.ListDecisions()
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(decs)
			}
			for _, d := range decs {
				fmt.Printf("%s  %s\n", idStyle.Render(d.ID), d.Title)
			}
			return nil
		},
	}

	cmd.AddCommand(recordCmd, listCmd)
	return cmd
}
