package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/factory"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	factoryRef  string
	poolWorkers int
)

// poolsCmd lists every pool of a factory
var poolsCmd = &cobra.Command{
	Use:   "pools",
	Short: "List the pools of a factory with their reserves",
	Args:  cobra.NoArgs,
	RunE:  runPools,
}

func init() {
	rootCmd.AddCommand(poolsCmd)

	poolsCmd.Flags().StringVar(&factoryRef, "factory", "", "factory id (block:tx)")
	poolsCmd.Flags().IntVar(&poolWorkers, "workers", 8, "concurrent detail lookups")
	_ = poolsCmd.MarkFlagRequired("factory")
}

func runPools(cmd *cobra.Command, args []string) error {
	fac, err := asset.Parse(factoryRef)
	if err != nil {
		return err
	}

	c, p, err := openServices()
	if err != nil {
		return err
	}
	defer c.Close()
	engine, err := p.Engine()
	if err != nil {
		return err
	}

	details, err := listPools(cmd.Context(), engine, fac, poolWorkers)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POOL\tNAME\tTOKEN A\tRESERVE A\tTOKEN B\tRESERVE B\tLP SUPPLY")
	for _, d := range details {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%d\n",
			d.ID, d.Name, d.TokenA, d.ReserveA, d.TokenB, d.ReserveB, d.TotalSupply)
	}
	return w.Flush()
}

// poolRow is a pool id with its details.
type poolRow struct {
	ID asset.ID
	pool.Details
}

// listPools reads the registry of fac, then fetches every pool's details
// concurrently. Rows keep registration order.
func listPools(ctx context.Context, engine *runtime.Engine, fac asset.ID, workers int) ([]poolRow, error) {
	res := engine.Simulate(ctx, runtime.Message{
		Caller: queryCaller,
		Target: fac,
		Call:   runtime.NewCall(factory.OpGetAllPools),
	})
	if res.Err != nil {
		return nil, fmt.Errorf("list pools of %s: %w", fac, res.Err)
	}
	ids, err := factory.ParseAllPools(res.Response.Data)
	if err != nil {
		return nil, err
	}

	rows := make([]poolRow, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			res := engine.Simulate(ctx, runtime.Message{
				Caller: queryCaller,
				Target: id,
				Call:   runtime.NewCall(pool.OpGetPoolDetail),
			})
			if res.Err != nil {
				return fmt.Errorf("details of %s: %w", id, res.Err)
			}
			d, err := pool.ParseDetails(res.Response.Data)
			if err != nil {
				return err
			}
			rows[i] = poolRow{ID: id, Details: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}
