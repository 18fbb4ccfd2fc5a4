package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var listenAddr string

// serveCmd exposes metrics until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve Prometheus metrics and a health check",
	Long: `Serve opens the configured store and exposes:
- /metrics                Prometheus metrics of the engine and process
- /pools?factory=<id>     pools of a factory with reserves, as JSON
- /health                 liveness check`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (default: metrics.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	c, p, err := openServices()
	if err != nil {
		return err
	}
	defer c.Close()

	logger, err := p.Logger()
	if err != nil {
		return err
	}
	reg, err := p.Registry()
	if err != nil {
		return err
	}
	engine, err := p.Engine()
	if err != nil {
		return err
	}

	addr := listenAddr
	if addr == "" {
		addr = cfg.Metrics.Listen
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.Handle("/pools", poolsHandler(engine, logger, poolWorkers))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","service":"ammd"}`)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// poolJSON is one row of the /pools response.
type poolJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TokenA      string `json:"token_a"`
	ReserveA    uint64 `json:"reserve_a"`
	TokenB      string `json:"token_b"`
	ReserveB    uint64 `json:"reserve_b"`
	TotalSupply uint64 `json:"lp_supply"`
}

// poolsHandler serves listPools for the factory named in the query.
func poolsHandler(engine *runtime.Engine, logger *slog.Logger, workers int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fac, err := asset.Parse(r.URL.Query().Get("factory"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := listPools(r.Context(), engine, fac, workers)
		if err != nil {
			logger.Warn("list pools failed", "factory", fac, "err", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		out := make([]poolJSON, len(rows))
		for i, row := range rows {
			out[i] = poolJSON{
				ID:          row.ID.String(),
				Name:        row.Name,
				TokenA:      row.TokenA.String(),
				ReserveA:    row.ReserveA,
				TokenB:      row.TokenB.String(),
				ReserveB:    row.ReserveB,
				TotalSupply: row.TotalSupply,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Warn("write pools response", "err", err)
		}
	})
}
