package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/analytics"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/config"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/dataset"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/logger"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/processing"
)

// app holds the state shared by every policyctl command.
type app struct {
	dataFile  string
	rulesFile string
	verbose   bool

	log       *slog.Logger
	cfg       *config.CLI
	now       func() time.Time
	newWriter func(brokers []string, topic string) eventWriter
}

func newApp() *app {
	return &app{now: time.Now, newWriter: newKafkaWriter}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "policyctl",
		Short: "Inspect, export and publish the UK AI policy dataset",
		Long: `policyctl works on the same dataset the API serves.

The dataset location comes from DATA_SOURCE / DATA_FILE (or the S3 settings);
--data overrides it with a local CSV file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := os.Getenv("LOG_LEVEL")
			if a.verbose {
				level = "debug"
			}
			a.log = logger.NewWithWriter("policyctl", cmd.ErrOrStderr(), level, os.Getenv("LOG_FORMAT"))

			if a.dataFile != "" {
				os.Setenv("DATA_SOURCE", string(config.SourceLocal))
				os.Setenv("DATA_FILE", a.dataFile)
			}
			cfg, err := config.LoadCLI()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if a.rulesFile != "" {
				cfg.ExcludeNonAI = true
				cfg.ExclusionRulesFile = a.rulesFile
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dataFile, "data", "", "local policy CSV (overrides DATA_FILE)")
	root.PersistentFlags().StringVar(&a.rulesFile, "rules", "", "YAML exclusion rules; enables non-AI exclusion")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.statsCommand())
	root.AddCommand(a.exportCommand())
	root.AddCommand(a.pruneCommand())
	root.AddCommand(a.publishCommand())
	return root
}

func (a *app) exclusionPolicy() (processing.ExclusionPolicy, error) {
	if !a.cfg.ExcludeNonAI {
		return nil, nil
	}
	rules, err := processing.LoadExclusionRules(a.cfg.ExclusionRulesFile)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// load reads the configured dataset and applies f.
func (a *app) load(ctx context.Context, f analytics.Filter) ([]models.Policy, error) {
	source, err := dataset.NewSource(ctx, a.cfg.Dataset)
	if err != nil {
		return nil, err
	}

	opts := []dataset.StoreOption{dataset.WithLogger(a.log)}
	policy, err := a.exclusionPolicy()
	if err != nil {
		return nil, err
	}
	if policy != nil {
		opts = append(opts, dataset.WithExclusionPolicy(policy))
	}

	records, err := dataset.NewStore(source, opts...).Policies(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.Apply(records, f), nil
}

type filterFlags struct {
	department    string
	priority      string
	policyType    string
	sector        string
	aiApplication string
	stage         string
	recency       string
	search        string
	minScore      float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.department, "dept", "", "department")
	cmd.Flags().StringVar(&f.priority, "priority", "", "priority category, e.g. 1-Critical")
	cmd.Flags().StringVar(&f.policyType, "type", "", "policy type")
	cmd.Flags().StringVar(&f.sector, "sector", "", "sector focus")
	cmd.Flags().StringVar(&f.aiApplication, "application", "", "AI application")
	cmd.Flags().StringVar(&f.stage, "stage", "", "policy stage")
	cmd.Flags().StringVar(&f.recency, "recency", "", `recency bucket, e.g. "Last 3 months"`)
	cmd.Flags().StringVarP(&f.search, "query", "q", "", "free-text search")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "minimum relevance score")
}

func (f *filterFlags) filter() analytics.Filter {
	return analytics.Filter{
		Department:    f.department,
		Priority:      f.priority,
		PolicyType:    f.policyType,
		Sector:        f.sector,
		AIApplication: f.aiApplication,
		Stage:         f.stage,
		Recency:       f.recency,
		Search:        f.search,
		MinScore:      f.minScore,
	}
}
