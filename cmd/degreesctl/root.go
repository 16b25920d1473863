package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"degrees/domain/core/entities"
	"degrees/infrastructure/config"
	"degrees/infrastructure/di"

	"github.com/spf13/cobra"
)

// containerFactory builds the dependency container for one command run.
type containerFactory func(ctx context.Context, cfgFile string) (*di.Container, error)

type cli struct {
	out     io.Writer
	build   containerFactory
	cfgFile string
	scope   string
}

func buildContainer(ctx context.Context, cfgFile string) (*di.Container, error) {
	if cfgFile != "" {
		os.Setenv("CONFIG_FILE", cfgFile)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return di.InitializeContainer(ctx, cfg)
}

func newRootCmd(out io.Writer, build containerFactory) *cobra.Command {
	c := &cli{out: out, build: build}

	root := &cobra.Command{
		Use:           "degreesctl",
		Short:         "Explore journeys through the biographical graph",
		Long:          longRoot,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	root.PersistentFlags().StringVar(&c.scope, "scope", "all", "visibility tiers to search: public, members or all")

	root.AddCommand(
		c.discoverCmd(),
		c.randomCmd(),
		c.pathCmd(),
		c.importCmd(),
		c.nodeCmd(),
	)
	return root
}

// run builds the container, seeds it and hands it to fn, releasing it afterwards.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, container *di.Container, scope entities.Scope) error) error {
	scope, err := parseScope(c.scope)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	container, err := c.build(ctx, c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer container.Shutdown(context.WithoutCancel(ctx))

	if err := container.Seed(ctx); err != nil {
		return err
	}
	return fn(ctx, container, scope)
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseScope(s string) (entities.Scope, error) {
	switch s {
	case "public":
		return entities.PublicScope(), nil
	case "members":
		return entities.MembersScope(), nil
	case "all", "":
		return entities.FullScope(), nil
	}
	return nil, fmt.Errorf("unknown scope %q, want public, members or all", s)
}

var longRoot = `
degreesctl searches the biographical graph for journeys: chains of people,
places and works linked by dated relationships.

Every command runs against the backend named by STORE_BACKEND and prints JSON.
When SEED_FILE is set the fixture is imported first, which makes the memory
backend usable from the command line.

Examples:
  # Five interesting journeys of two to four hops.
  degreesctl discover --min 2 --max 5 --limit 5

  # The shortest public route between two people.
  degreesctl path ada-lovelace mary-somerville --scope public --randomize=false

  # Load a fixture into SQLite.
  STORE_BACKEND=sqlite SQLITE_PATH=graph.db degreesctl import fixtures/lovelace.yaml
`
