package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calquery/calquery/calquerylog"
	"github.com/calquery/calquery/calquerymetrics"
	"github.com/calquery/calquery/calqueryparse"
	"github.com/calquery/calquery/query"
)

func newQueryCmd(opts *globalOptions) *cobra.Command {
	var icsPaths []string
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "query <query-string>",
		Short: "Run one query-language string against calendars loaded from --ics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := calquerylog.New(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer logger.Sync()

			addr := cfg.Metrics.Addr
			if metricsAddr != "" {
				addr = metricsAddr
				cfg.Metrics.Enabled = true
			}
			if cfg.Metrics.Enabled {
				serveMetrics(logger, addr)
			}

			if len(icsPaths) == 0 {
				return fmt.Errorf("at least one --ics path is required")
			}
			cal, err := loadCalendar(icsPaths)
			if err != nil {
				return fmt.Errorf("load calendar: %w", err)
			}
			calquerymetrics.CalendarEvents.WithLabelValues(cal.UID).Set(float64(cal.Len()))

			q, err := calqueryparse.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse query: %w", err)
			}

			results, err := query.NewExecutor(cal).WithLogger(logger).Execute(q)
			if err != nil {
				return fmt.Errorf("execute query: %w", err)
			}
			loc, err := time.LoadLocation(q.TZID)
			if err != nil {
				logger.Warn("unknown X-TZID, rendering in UTC", zap.String("tzid", q.TZID), zap.Error(err))
				loc = time.UTC
			}
			if err := printResults(cmd.OutOrStdout(), results, loc); err != nil {
				return fmt.Errorf("render results: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&icsPaths, "ics", nil, "Path to an .ics file, or a directory of .ics files (repeatable)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address instead of the configured default")
	return cmd
}

// serveMetrics starts the prometheus exporter in the background;
// calqueryctl runs one query and exits, so a scrape is only possible
// if something is still watching the process (e.g. under a
// long-running wrapper), which is why failures here are logged, not
// fatal.
func serveMetrics(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
}
