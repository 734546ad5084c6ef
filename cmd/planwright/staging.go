package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStagingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staging",
		Short: "Start, complete, and inspect stagings",
	}

	startCmd := &cobra.Command{
		Use:   "start <plan-id> <staging-id>",
		Short: "Start a staging (previous staging must be completed)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staging, err := a.mgr.StartStaging(args[0], args[1])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(staging)
			}
			printStagingLine(*staging)
			return nil
		},
	}

	completeCmd := &cobra.Command{
		Use:   "complete <plan-id> <staging-id>",
		Short: "Complete a staging whose tasks are all done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			staging, err := a.mgr.CompleteStaging(args[0], args[1])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(staging)
			}
			printStagingLine(*staging)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <plan-id> <staging-id>",
		Short: "Remove a staging and its tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.RemoveStaging(args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("removed", args[1])
			return nil
		},
	}

	tasksCmd := &cobra.Command{
		Use:   "tasks <staging-id>",
		Short: "List a staging's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.mgr.ListTasks(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(tasks)
			}
			for _, t := range tasks {
				printTaskLine(t)
			}
			return nil
		},
	}

	executableCmd := &cobra.Command{
		Use:   "executable <staging-id>",
		Short: "List tasks that may start right now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.mgr.ExecutableTasks(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(tasks)
			}
			for _, t := range tasks {
				printTaskLine(t)
			}
			return nil
		},
	}

	cmd.AddCommand(startCmd, completeCmd, removeCmd, tasksCmd, executableCmd)
	return cmd
}
