package main

import (
	"context"

	"degrees/application/queries"
	querybus "degrees/application/queries/bus"
	"degrees/domain/core/entities"
	"degrees/domain/exploration"
	"degrees/infrastructure/di"
	"degrees/infrastructure/seed"

	"github.com/spf13/cobra"
)

func (c *cli) discoverCmd() *cobra.Command {
	var minDegree, maxDegree, limit int

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find several interesting journeys, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *di.Container, scope entities.Scope) error {
				result, err := querybus.Ask[*queries.DiscoverJourneysResult](ctx, container.QueryBus, queries.DiscoverJourneysQuery{
					MinDegree: minDegree,
					MaxDegree: maxDegree,
					Limit:     limit,
					Scope:     scope,
				})
				if err != nil {
					return err
				}
				return c.print(result)
			})
		},
	}
	cmd.Flags().IntVar(&minDegree, "min", exploration.DefaultMinDegree, "minimum hops")
	cmd.Flags().IntVar(&maxDegree, "max", exploration.DefaultMaxDegree, "degree cap; results have fewer hops")
	cmd.Flags().IntVar(&limit, "limit", exploration.DefaultLimit, "journeys to return")
	return cmd
}

func (c *cli) randomCmd() *cobra.Command {
	var minDegree, maxDegree int

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Find one interesting journey",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *di.Container, scope entities.Scope) error {
				result, err := querybus.Ask[*queries.JourneyResult](ctx, container.QueryBus, queries.FindRandomJourneyQuery{
					MinDegree: minDegree,
					MaxDegree: maxDegree,
					Scope:     scope,
				})
				if err != nil {
					return err
				}
				return c.print(result)
			})
		},
	}
	cmd.Flags().IntVar(&minDegree, "min", exploration.DefaultMinDegree, "minimum hops")
	cmd.Flags().IntVar(&maxDegree, "max", exploration.DefaultMaxDegree, "degree cap; results have fewer hops")
	return cmd
}

func (c *cli) pathCmd() *cobra.Command {
	var (
		maxDegree int
		randomize bool
		mode      string
	)

	cmd := &cobra.Command{
		Use:   "path <source> <target>",
		Short: "Find a path between two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *di.Container, scope entities.Scope) error {
				result, err := querybus.Ask[*queries.JourneyResult](ctx, container.QueryBus, queries.FindPathQuery{
					Source:    args[0],
					Target:    args[1],
					MaxDegree: maxDegree,
					Randomize: randomize,
					Mode:      mode,
					Scope:     scope,
				})
				if err != nil {
					return err
				}
				return c.print(result)
			})
		},
	}
	cmd.Flags().IntVar(&maxDegree, "max", exploration.DefaultMaxDegree, "degree cap; results have fewer hops")
	cmd.Flags().BoolVar(&randomize, "randomize", exploration.DefaultRandomize, "shuffle neighbour order between equal-length paths")
	cmd.Flags().StringVar(&mode, "mode", string(exploration.PathModeStrict), "strict (always shortest) or exploratory")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML or JSON fixture into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, container *di.Container, _ entities.Scope) error {
				if err := container.CommandBus.Send(ctx, doc); err != nil {
					return err
				}
				return c.print(map[string]interface{}{
					"backend": container.Store.Backend(),
					"nodes":   len(doc.Nodes),
					"edges":   len(doc.Edges),
				})
			})
		},
	}
}

func (c *cli) nodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node <id>",
		Short: "Show one node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, func(ctx context.Context, container *di.Container, scope entities.Scope) error {
				result, err := querybus.Ask[*queries.NodeView](ctx, container.QueryBus, queries.GetNodeQuery{
					NodeID: args[0],
					Scope:  scope,
				})
				if err != nil {
					return err
				}
				return c.print(result)
			})
		},
	}
}
