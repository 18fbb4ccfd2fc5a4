package cli

import (
	"fmt"

	"github.com/LeJamon/goAMM/internal/scenario"
	"github.com/spf13/cobra"
)

// runCmd replays a scenario file
var runCmd = &cobra.Command{
	Use:   "run [scenario.yaml]",
	Short: "Apply a scenario of deployments and calls",
	Long: `Run applies every step of a YAML scenario to the configured store,
committing each successful call, and prints the result of each step.

A step that does not end with its expected code (success by default) stops
the run; steps already applied stay committed.

Example:
    ammd run ./scenarios/seed.yaml
    ammd --conf ammd.toml run ./scenarios/seed.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	s, err := scenario.Load(args[0])
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
	heights, err := p.Heights()
	if err != nil {
		return err
	}

	results, runErr := scenario.NewRunner(engine, heights).Run(cmd.Context(), s)
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintln(out, r)
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(out, "%d steps applied, height %d\n", len(results), heights.Height())
	return nil
}
