package main

import (
	"context"
	"fmt"
	"os"
	"readingcompass/internal/app"
	"readingcompass/internal/config"
	"readingcompass/internal/logging"
	"readingcompass/internal/model"
	"readingcompass/internal/repository"
	"readingcompass/internal/service"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Load taxonomies and issue development tokens",
		SilenceUsage: true,
	}
	root.AddCommand(newTaxonomyCommand(), newTokenCommand())
	return root
}

func newTaxonomyCommand() *cobra.Command {
	var (
		files  []string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "taxonomy --file taxonomy.yaml [--file ...]",
		Short: "Validate and store authored taxonomies",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]*model.TaxonomyDocument, 0, len(files))
			for _, f := range files {
				doc, err := loadTaxonomyFile(f)
				if err != nil {
					return err
				}
				if err := service.ValidateDocument(doc); err != nil {
					return fmt.Errorf("%s: %w", f, err)
				}
				docs = append(docs, doc)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s v%s ok (%d questions, %d types, %d compatibility profiles)\n",
					f, doc.Taxonomy.ID, doc.Taxonomy.Version,
					len(doc.Taxonomy.Questions), len(doc.Taxonomy.Types), len(doc.Compatibility))
			}
			if dryRun {
				return nil
			}
			return publish(cmd.Context(), docs)
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "taxonomy YAML file (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, do not write to MongoDB")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --subject id --role role",
		Short: "Print a signed subject token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			token, err := service.NewAuthService(cfg.JWTSecret).IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject id")
	cmd.Flags().StringVar(&role, "role", model.RoleStudent, "student, parent, teacher or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	cmd.MarkFlagRequired("subject")
	return cmd
}

func loadTaxonomyFile(path string) (*model.TaxonomyDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var doc model.TaxonomyDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

func publish(ctx context.Context, docs []*model.TaxonomyDocument) error {
	cfg, err := config.Read()
	if err != nil {
		return err
	}
	log := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	taxonomies := service.NewTaxonomyService(repository.NewTaxonomyRepo(db), len(docs), 0, log)
	for _, doc := range docs {
		if err := taxonomies.Publish(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
