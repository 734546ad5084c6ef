package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planwright/planwright/internal/engine"
	"github.com/planwright/planwright/internal/schema"
)

func newInitCmd(a *app) *cobra.Command {
	var description string
	var goals, constraints []string

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create the project and its state document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := a.mgr.CreateProject(args[0], description, goals, constraints)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(project)
			}
			fmt.Printf("%s %s\n", headingStyle.Render("initialized project"), project.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "project description")
	cmd.Flags().StringSliceVar(&goals, "goal", nil, "project goal (repeatable)")
	cmd.Flags().StringSliceVar(&constraints, "constraint", nil, "project constraint (repeatable)")
	return cmd
}

// planFile mirrors engine.PlanDefinition for `plan create --file` input.
type planFile struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Stagings    []struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		ExecutionType string `json:"executionType"`
		Tasks         []struct {
			Title         string `json:"title"`
			Description   string `json:"description"`
			Priority      string `json:"priority"`
			ExecutionMode string `json:"executionMode"`
			DependsOn     []int  `json:"dependsOn"`
		} `json:"tasks"`
	} `json:"stagings"`
}

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Create, list, and manage plans",
	}

	var file string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan from a JSON definition file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			b, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read plan definition: %w", err)
			}
			var pf planFile
			if err := json.Unmarshal(b, &pf); err != nil {
				return fmt.Errorf("parse plan definition: %w", err)
			}

			plan, err := a.mgr.CreatePlan(toDefinition(pf))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(plan)
			}
			printPlanLine(*plan)
			return nil
		},
	}
	createCmd.Flags().StringVar(&file, "file", "", "plan definition JSON file")

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := a.mgr.ListPlans(schema.PlanStatus(status))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(plans)
			}
			for _, p := range plans {
				printPlanLine(p)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "filter by status")

	showCmd := &cobra.Command{
		Use:   "show <plan-id>",
		Short: "Show one plan and its stagings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.mgr.GetPlan(args[0])
			if err != nil {
				return err
			}
			stagings, err := a.mgr.ListStagings(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(map[string]any{"plan": plan, "stagings": stagings})
			}
			printPlanLine(*plan)
			for _, s := range stagings {
				printStagingLine(s)
			}
			return nil
		},
	}

	archiveCmd := &cobra.Command{
		Use:   "archive <plan-id>",
		Short: "Archive a completed or cancelled plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.mgr.ArchivePlan(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(plan)
			}
			printPlanLine(*plan)
			return nil
		},
	}

	unarchiveCmd := &cobra.Command{
		Use:   "unarchive <plan-id>",
		Short: "Restore an archived plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.mgr.UnarchivePlan(args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(plan)
			}
			printPlanLine(*plan)
			return nil
		},
	}

	var note string
	cancelCmd := &cobra.Command{
		Use:   "cancel <plan-id>",
		Short: "Cancel a plan and everything beneath it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.mgr.CancelPlan(args[0], note)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(plan)
			}
			printPlanLine(*plan)
			return nil
		},
	}
	cancelCmd.Flags().StringVar(&note, "note", "", "cancellation note")

	var pattern string
	artifactsCmd := &cobra.Command{
		Use:   "artifacts <plan-id>",
		Short: "List a plan's artifact files matching a glob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.mgr.ListArtifacts(args[0], pattern)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(paths)
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
	artifactsCmd.Flags().StringVar(&pattern, "pattern", "**/*", "doublestar glob over slash paths")

	cmd.AddCommand(createCmd, listCmd, showCmd, archiveCmd, unarchiveCmd, cancelCmd, artifactsCmd)
	return cmd
}

func toDefinition(pf planFile) engine.PlanDefinition {
	def := engine.PlanDefinition{
		Title:       pf.Title,
		Description: pf.Description,
	}
	for _, s := range pf.Stagings {
		sdef := engine.StagingDefinition{
			Title:         s.Title,
			Description:   s.Description,
			ExecutionType: schema.ExecutionType(s.ExecutionType),
		}
		for _, t := range s.Tasks {
			sdef.Tasks = append(sdef.Tasks, engine.TaskDefinition{
				Title:         t.Title,
				Description:   t.Description,
				Priority:      schema.Priority(t.Priority),
				ExecutionMode: schema.ExecutionType(t.ExecutionMode),
				DependsOn:     t.DependsOn,
			})
		}
		def.Stagings = append(def.Stagings, sdef)
	}
	return def
}
