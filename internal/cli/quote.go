package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/router"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/spf13/cobra"
)

var (
	routerRef string
	quotePath []string
	quoteIn   uint64
	quoteOut  uint64
)

// quoteCmd prices a multi-hop route
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote a multi-hop swap through a router",
	Long: `Quote prints the amount at every hop of a route, either for a given
input (--in) or for a desired output (--out).

Example:
    ammd quote --router 2:8 --path 2:1,2:2,2:3 --in 10000`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVar(&routerRef, "router", "", "router id (block:tx)")
	quoteCmd.Flags().StringSliceVar(&quotePath, "path", nil, "comma separated asset ids")
	quoteCmd.Flags().Uint64Var(&quoteIn, "in", 0, "exact input amount")
	quoteCmd.Flags().Uint64Var(&quoteOut, "out", 0, "exact output amount")
	_ = quoteCmd.MarkFlagRequired("router")
	_ = quoteCmd.MarkFlagRequired("path")
	quoteCmd.MarkFlagsMutuallyExclusive("in", "out")
}

func runQuote(cmd *cobra.Command, args []string) error {
	r, err := asset.Parse(routerRef)
	if err != nil {
		return err
	}
	path := make([]asset.ID, len(quotePath))
	for i, s := range quotePath {
		if path[i], err = asset.Parse(s); err != nil {
			return err
		}
	}
	if (quoteIn == 0) == (quoteOut == 0) {
		return errors.New("exactly one of --in and --out is required")
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

	exactIn, amount := quoteIn != 0, quoteIn
	if !exactIn {
		amount = quoteOut
	}
	amounts, err := quote(cmd.Context(), engine, r, path, amount, exactIn)
	if err != nil {
		return err
	}

	hops := make([]string, len(path))
	for i, id := range path {
		hops[i] = fmt.Sprintf("%d %s", amounts[i], id)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(hops, " -> "))
	return nil
}

func quote(ctx context.Context, engine *runtime.Engine, r asset.ID, path []asset.ID, amount uint64, exactIn bool) ([]uint64, error) {
	res := engine.Simulate(ctx, runtime.Message{
		Caller: queryCaller,
		Target: r,
		Call:   router.QuoteCall(path, amount, exactIn),
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return runtime.ReadUint64s(res.Response.Data, len(path))
}
