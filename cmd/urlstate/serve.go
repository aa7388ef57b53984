package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/urlstate-go/urlstate"
	"github.com/urlstate-go/urlstate/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		staticDir   string
		devMode     bool
		metricsAddr string
		shareLinks  bool
		presetTag   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo synchronization server",
		Long: `Run a server with three synchronized demo stores:

  globe     tags ([]string, default ["Weather"]), search (string, param "q")
  view      lat/lon (float64), zoom (int, default 3)
  settings  units ("metric"/"imperial"), labels (bool, encoded "1"/"0")

Examples:
  urlstate serve
  urlstate serve --addr=:3000 --static=public
  urlstate serve --metrics-addr=:9090
  urlstate serve --preset-tag=Label`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, staticDir, devMode, metricsAddr, shareLinks, presetTag)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVarP(&staticDir, "static", "s", "", "Directory with the app shell and assets")
	cmd.Flags().BoolVar(&devMode, "dev", false, "Disable origin checks (development only)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&shareLinks, "share", true, "Enable short share links under /s")
	cmd.Flags().StringVar(&presetTag, "preset-tag", "", "Preset the globe tags field for every session")

	return cmd
}

func runServe(addr, staticDir string, devMode bool, metricsAddr string, shareLinks bool, presetTag string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := urlstate.DefaultConfig()
	cfg.Address = addr
	cfg.DevMode = devMode
	cfg.Logger = logger
	cfg.Static.Dir = staticDir
	cfg.Share.Enabled = shareLinks
	cfg.Share.MaxAge = 30 * 24 * time.Hour
	if presetTag != "" {
		cfg.Presets = urlstate.Overrides{
			"globe": {"tags": []string{presetTag}},
		}
	}
	if metricsAddr != "" {
		cfg.Observer = middleware.Prometheus()
	}

	app := urlstate.New(cfg)
	app.OnSession(wireDemoStores)

	if metricsAddr != "" {
		sessions := app.Server().Sessions()
		sessions.SetOnSessionCreate(func(*urlstate.Session) { middleware.RecordSessionCreate() })
		sessions.SetOnSessionClose(func(*urlstate.Session) { middleware.RecordSessionClose() })

		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "address", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	printBanner()
	info("serve")
	info("address      %s", addr)
	if staticDir != "" {
		info("static       %s", staticDir)
	} else {
		info("static       (none; sync endpoints only)")
	}
	if shareLinks {
		info("share links  %s", cfg.Share.Prefix)
	}
	if metricsAddr != "" {
		info("metrics      %s/metrics", metricsAddr)
	}
	fmt.Println()

	return app.Run()
}

// wireDemoStores builds the demo stores for one session.
func wireDemoStores(sess *urlstate.Session, mgr *urlstate.Manager) {
	globe := urlstate.NewStore("globe")
	urlstate.Define(globe, "tags", []string{"Weather"})
	urlstate.Define(globe, "search", "")
	attach(sess, mgr, globe, urlstate.SyncConfig{Fields: []urlstate.FieldSpec{
		urlstate.Field[[]string]("tags").
			Valid(func(tags []string) bool { return len(tags) > 0 }),
		urlstate.Field[string]("search").Param("q"),
	}})

	view := urlstate.NewStore("view")
	urlstate.Define(view, "lat", 0.0)
	urlstate.Define(view, "lon", 0.0)
	urlstate.Define(view, "zoom", 3)
	attach(sess, mgr, view, urlstate.SyncConfig{Fields: []urlstate.FieldSpec{
		urlstate.Field[float64]("lat"),
		urlstate.Field[float64]("lon"),
		urlstate.Field[int]("zoom"),
	}})

	settings := urlstate.NewStore("settings")
	urlstate.Define(settings, "units", "metric")
	urlstate.Define(settings, "labels", true)
	attach(sess, mgr, settings, urlstate.SyncConfig{Fields: []urlstate.FieldSpec{
		urlstate.Field[string]("units").
			Valid(func(u string) bool { return u == "metric" || u == "imperial" }),
		urlstate.Field[bool]("labels").
			Serialize(func(v bool) string {
				if v {
					return "1"
				}
				return "0"
			}).
			Deserialize(func(raw string) (bool, error) {
				switch raw {
				case "1":
					return true, nil
				case "0":
					return false, nil
				}
				return false, fmt.Errorf("labels must be %q or %q, got %q", "1", "0", raw)
			}),
	}})
}

func attach(sess *urlstate.Session, mgr *urlstate.Manager, st *urlstate.Store, cfg urlstate.SyncConfig) {
	if _, err := mgr.Attach(st, cfg); err != nil {
		sess.Logger().Error("store attach failed", "store", st.ID(), "error", err)
	}
}
