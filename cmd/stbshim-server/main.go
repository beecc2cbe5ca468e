package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/stbshim/internal/config"
	"github.com/junsooki/stbshim/internal/decoder"
	"github.com/junsooki/stbshim/internal/log"
	"github.com/junsooki/stbshim/internal/probe"
)

var (
	commit  string
	version = "unversioned"
	date    string

	configPath  string
	listen      string
	debugFlag   = false
	printConfig = false
)

func main() {
	flaggy.SetName("stbshim-server")
	flaggy.SetDescription("Accepts encoded image buffers and reports what the loader made of them")
	flaggy.SetVersion(fmt.Sprintf("%s\nDate: %s\nCommit: %s\nOS: %s\nArch: %s", version, date, commit, runtime.GOOS, runtime.GOARCH))

	flaggy.String(&configPath, "c", "config", "Path to a YAML config file")
	flaggy.String(&listen, "l", "listen", "Listen address (overrides config)")
	flaggy.Bool(&debugFlag, "d", "debug", "Enable debug logging")
	flaggy.Bool(&printConfig, "p", "print-config", "Print the effective config and exit")
	flaggy.Parse()

	cfg, err := config.LoadServer(configPath)
	if err != nil {
		fatal(err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	if debugFlag {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	if printConfig {
		out, err := config.Dump(cfg)
		if err != nil {
			fatal(err)
		}
		fmt.Print(out)
		os.Exit(0)
	}

	logger := log.NewLogger(cfg.Log, "stbshim-server", version)
	logger.WithFields(logrus.Fields{
		"listen":           cfg.Listen,
		"ws_path":          cfg.WSPath,
		"desired_channels": cfg.DesiredChannels,
		"max_frame_bytes":  cfg.MaxFrameBytes,
	}).Info("stbshim server starting")

	dec := decoder.NewMemoryDecoder(cfg.DesiredChannels, logger)
	svc := probe.NewService(dec, cfg.MaxFrameBytes, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           probe.NewServer(cfg, svc, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(errors.Wrap(err, 0).ErrorStack())
			os.Exit(1)
		}
	case <-sigCh:
		logger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("shutdown")
	}
	logger.WithFields(logrus.Fields{"stats": svc.Stats()}).Info("stopped")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, errors.Wrap(err, 1).ErrorStack())
	os.Exit(1)
}
