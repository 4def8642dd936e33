package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/readbridge-edu/readbridge-progress/config"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/progression"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/postgres"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample assessment definitions into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Database.Configured() {
		return fmt.Errorf("no database configured")
	}

	log := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Logging.Level)})

	conn, err := connectPostgres(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	repo := postgres.NewDefinitionRepository(conn)
	for _, def := range sampleDefinitions() {
		if err := repo.Upsert(ctx, def); err != nil {
			return fmt.Errorf("seed %s: %w", def.ID, err)
		}
		log.Info("seeded definition",
			logger.AssessmentID(def.ID.String()),
			logger.String("title", def.Title),
		)
	}
	return nil
}

// sampleDefinitions returns one small definition per skill category.
// Production content comes from the authoring pipeline; these exist so
// the service is usable right after `migrate` + `seed`, and so the
// in-memory mode has something to score.
func sampleDefinitions() []assessment.Definition {
	defs := make([]assessment.Definition, 0, len(progression.Catalog))
	for _, cat := range progression.Catalog {
		defs = append(defs, assessment.Definition{
			ID:         cat.MainAssessmentID,
			Title:      cat.Name,
			CategoryID: cat.ID,
			Questions: []assessment.Question{
				{
					ID:     "q1",
					Prompt: fmt.Sprintf("%s sample question 1", cat.Name),
					Options: []assessment.Option{
						{ID: "a", Text: "Option A", Correct: true},
						{ID: "b", Text: "Option B"},
					},
				},
				{
					ID:     "q2",
					Prompt: fmt.Sprintf("%s sample question 2", cat.Name),
					Options: []assessment.Option{
						{ID: "a", Text: "Option A"},
						{ID: "b", Text: "Option B", Correct: true},
					},
				},
			},
		})
	}
	return defs
}
