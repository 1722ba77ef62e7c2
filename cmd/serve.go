package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/procsched/schedsim/sim"
	"github.com/procsched/schedsim/sim/recorder"
	"github.com/procsched/schedsim/sim/server"
)

var (
	listenAddr    string        // HTTP listen address
	frameInterval time.Duration // Real-time frame period driving the clock
	openBrowser   bool          // Open the API in a browser once listening
)

// serveCmd runs a level in real time behind the HTTP input adapter
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a level in real time behind an HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		if err := checkTraceLevel(traceLevel); err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg, err := buildLevelConfig(levelRef, overridesFromFlags(cmd))
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st := newTrace(traceLevel)
		opts := []sim.Option{sim.WithTrace(st), sim.WithTickDuration(tickDuration)}
		var srvOpts []server.Option
		if st != nil {
			srvOpts = append(srvOpts, server.WithTrace(st))
		}

		var rec *recorder.Recorder
		if dbPath != "" {
			rec, err = recorder.Open(ctx, dbPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			defer rec.Close()
			opts = append(opts, sim.WithTelemetrySink(rec))
			srvOpts = append(srvOpts, server.WithRecorder(rec))
		}

		level := sim.NewLevelController(cfg, seed, opts...)
		if err := level.ResetLevel(); err != nil {
			logrus.Fatalf("%v", err)
		}
		if rec != nil {
			if _, err := rec.StartRun(ctx, cfg.Name, seed); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		srv := server.New(level, seed, srvOpts...)
		httpSrv := &http.Server{Addr: listenAddr, Handler: srv.Handler()}
		go srv.Run(ctx, frameInterval)
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutdownCtx)
		}()

		url := fmt.Sprintf("http://%s/api/v1/", displayAddr(listenAddr))
		logrus.Infof("Serving level %q on %s", cfg.Name, url)
		if openBrowser {
			if err := browser.OpenURL(url); err != nil {
				logrus.Warnf("could not open browser: %v", err)
			}
		}
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("%v", err)
		}
		if err := srv.FinishRun(context.Background()); err != nil {
			logrus.Errorf("saving trace: %v", err)
		}
		logrus.Info("Server stopped.")
	},
}

// displayAddr turns a listen address like ":8080" into a dialable host:port.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}

func init() {
	addLevelFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&frameInterval, "frame", 50*time.Millisecond, "Frame period driving the level clock")
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "Open the API root in a browser")
	rootCmd.AddCommand(serveCmd)
}
