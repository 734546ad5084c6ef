package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planwright/planwright/internal/engine"
	"github.com/planwright/planwright/internal/schema"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks and their status",
	}

	var note string
	statusCmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Apply a task status transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.mgr.UpdateTaskStatus(args[0], schema.TaskStatus(args[1]), note)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(task)
			}
			printTaskLine(*task)
			return nil
		},
	}
	statusCmd.Flags().StringVar(&note, "note", "", "note recorded in history")

	var title, description, priority string
	var deps []string
	addCmd := &cobra.Command{
		Use:   "add <staging-id>",
		Short: "Add a task to a staging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.mgr.AddTask(args[0], engine.TaskDefinition{
				Title:       title,
				Description: description,
				Priority:    schema.Priority(priority),
			}, deps)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(task)
			}
			printTaskLine(*task)
			return nil
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "task title")
	addCmd.Flags().StringVar(&description, "description", "", "task description")
	addCmd.Flags().StringVar(&priority, "priority", "", "high, medium, or low")
	addCmd.Flags().StringSliceVar(&deps, "depends-on", nil, "sibling task ids (repeatable)")

	removeCmd := &cobra.Command{
		Use:   "remove <task-id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.RemoveTask(args[0]); err != nil {
				return err
			}
			fmt.Println("removed", args[0])
			return nil
		},
	}

	var outputJSON string
	outputCmd := &cobra.Command{
		Use:   "output <task-id>",
		Short: "Save or show a task's output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON == "" {
				out, err := a.mgr.LoadTaskOutput(args[0])
				if err != nil {
					return err
				}
				if out == nil {
					fmt.Println("no output recorded")
					return nil
				}
				return printJSON(out)
			}

			var out schema.TaskOutput
			if err := json.Unmarshal([]byte(outputJSON), &out); err != nil {
				return fmt.Errorf("parse --set payload: %w", err)
			}
			task, err := a.mgr.SaveTaskOutput(args[0], out)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(task)
			}
			printTaskLine(*task)
			return nil
		},
	}
	outputCmd.Flags().StringVar(&outputJSON, "set", "", "output payload as JSON")

	showCmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.mgr.GetTask(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(task)
			}
			printTaskLine(*task)
			return nil
		},
	}

	cmd.AddCommand(statusCmd, addCmd, removeCmd, outputCmd, showCmd)
	return cmd
}
