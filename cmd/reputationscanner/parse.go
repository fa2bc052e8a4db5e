package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ReputationScanner/internal/app"
	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/usecase"
)

const cliProject = "cli"

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Run one parse job and print the resulting parsing",
	Long: `Runs retrieval, classification and scoring for one entity and waits for it.

Either address an existing entity with --project and --entity, or pass --name
to add an entity to the "cli" project first.`,
	RunE: runParse,
}

var (
	parseProjectID string
	parseEntityID  string
	parseName      string
	parseEngines   []string
	parseDepth     int
	parseRegion    string
	parseTimeout   time.Duration
)

func init() {
	parseCmd.Flags().StringVar(&parseProjectID, "project", "", "Existing project ID")
	parseCmd.Flags().StringVar(&parseEntityID, "entity", "", "Existing entity ID")
	parseCmd.Flags().StringVarP(&parseName, "name", "n", "", "Name to scan when no entity is given")
	parseCmd.Flags().StringSliceVarP(&parseEngines, "engines", "e", []string{"duckduckgo"}, "Engines for a new entity")
	parseCmd.Flags().IntVarP(&parseDepth, "depth", "d", usecase.DefaultDepth, "Results per engine for a new entity")
	parseCmd.Flags().StringVar(&parseRegion, "region", "", "Region code for a new entity")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 10*time.Minute, "Give up waiting after this long")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	application, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer application.Close()

	ref, err := resolveEntity(ctx, application)
	if err != nil {
		return err
	}

	job, _, err := application.Orchestrator().Start(ctx, ref)
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()
	job, err = application.Orchestrator().Wait(waitCtx, job.ID)
	if err != nil {
		return fmt.Errorf("wait for job %s: %w", job.ID, err)
	}
	if job.Status == domain.JobError {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	return printJSON(cmd.OutOrStdout(), job.Result)
}

func resolveEntity(ctx context.Context, application *app.Application) (domain.EntityRef, error) {
	if parseEntityID != "" {
		if parseProjectID == "" {
			return domain.EntityRef{}, fmt.Errorf("--entity requires --project")
		}
		return domain.EntityRef{ProjectID: parseProjectID, EntityID: parseEntityID}, nil
	}
	if parseName == "" {
		return domain.EntityRef{}, fmt.Errorf("either --name or --project with --entity is required")
	}

	catalog := application.Catalog()
	projectID := parseProjectID
	if projectID == "" {
		projects, err := catalog.ListProjects(ctx)
		if err != nil {
			return domain.EntityRef{}, err
		}
		for _, p := range projects {
			if p.Name == cliProject {
				projectID = p.ID
				break
			}
		}
		if projectID == "" {
			project, err := catalog.CreateProject(ctx, cliProject)
			if err != nil {
				return domain.EntityRef{}, err
			}
			projectID = project.ID
		}
	}

	entity, err := catalog.CreateEntity(ctx, projectID, usecase.NewEntity{
		Name:    parseName,
		Engines: parseEngines,
		Depth:   parseDepth,
		Region:  parseRegion,
	})
	if err != nil {
		return domain.EntityRef{}, err
	}
	return domain.EntityRef{ProjectID: projectID, EntityID: entity.ID}, nil
}
