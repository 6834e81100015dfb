package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pivotsvc/internal/api"
	"pivotsvc/internal/config"
	"pivotsvc/internal/engine"
	"pivotsvc/internal/metrics"
	"pivotsvc/internal/pivot"
	"pivotsvc/internal/watch"
)

func serveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pivot table API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bindFlags(v, cmd, map[string]string{
				"server.host":  "host",
				"server.port":  "port",
				"data.path":    "data",
				"data.layout":  "layout",
				"data.workers": "workers",
				"data.watch":   "watch",
			})
			cfg, log, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	cmd.Flags().String("data", "", "output table CSV file")
	cmd.Flags().String("layout", "", "pivot layout yaml file")
	cmd.Flags().Int("workers", 0, "CSV parse workers, 0 is one per CPU")
	cmd.Flags().Bool("watch", false, "reload data file on change")
	return cmd
}

// bindFlags binds flags of the running command to config keys,
// viper uses a flag value only if it is set on command line.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(name))
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 1. Initialize Echo (Starts Instantly)
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(requestLogger(log))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col := metrics.New(reg)
	if cfg.Server.Metrics {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}

	// 2. Initialize Handler with NIL data
	// The API is now "live" but will return 503 (Loading) if hit
	var current atomic.Pointer[engine.Dataset]
	reload := func(ctx context.Context) error {
		ds := current.Load()
		if ds == nil {
			return errors.New("data is not loaded yet")
		}
		_, err := ds.LoadFile(ctx, cfg.Data.Path, cfg.Data.Workers, log)
		col.Load(err)
		return err
	}
	h := api.NewHandler(nil, cfg.ServiceConfig(), reload, log)
	h.RegisterRoutes(e)

	g, gctx := errgroup.WithContext(ctx)

	// 3. Load data in background
	g.Go(func() error {
		ds, err := loadDataset(gctx, cfg, pivot.Options[engine.Record]{
			Observer: col,
			OnSize: func(s pivot.Size) {
				log.Debug("table size", zap.Int("rows", s.RowCount), zap.Int("cols", s.ColCount), zap.Int("valueLen", s.ValueLen))
			},
		}, log)
		col.Load(err)
		if err != nil {
			return err
		}
		current.Store(ds)
		h.SetData(ds)
		log.Info("pivot table ready", zap.Int("rows", ds.Table().View().RowCount()), zap.Int("cols", ds.Table().View().ColCount()))

		if !cfg.Data.Watch {
			return nil
		}
		w, err := watch.New(cfg.Data.Path, cfg.Data.Debounce, func(ctx context.Context, _ string) error {
			return reload(ctx)
		}, log)
		if err != nil {
			return err
		}
		return w.Run(gctx)
	})

	// 4. Start Server
	g.Go(func() error {
		log.Info("server ready (data loading in background)", zap.String("addr", cfg.Addr()))
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(sctx)
	})

	return g.Wait()
}

func loadDataset(ctx context.Context, cfg *config.Config, opts pivot.Options[engine.Record], log *zap.Logger) (*engine.Dataset, error) {
	if cfg.Data.Path == "" {
		return nil, errors.New("data file path is empty, use --data or data.path")
	}
	store, err := engine.LoadColumnar(ctx, cfg.Data.Path, cfg.Data.Workers, log)
	if err != nil {
		return nil, err
	}
	var layout *engine.Layout
	if cfg.Data.Layout != "" {
		if layout, err = engine.LoadLayout(cfg.Data.Layout); err != nil {
			return nil, err
		}
	}
	return engine.NewDataset(store, layout, opts)
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	})
}
