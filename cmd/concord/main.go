package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/openprocurement/concord/internal/concordlog"
	"github.com/openprocurement/concord/internal/dispatch"
	"github.com/openprocurement/concord/internal/feed"
	"github.com/openprocurement/concord/internal/health"
	"github.com/openprocurement/concord/internal/resolver"
	"github.com/openprocurement/concord/internal/store"
)

func main() {
	// Parse command line flags
	couchURL := flag.String("couch", "http://localhost:5984/openprocurement", "CouchDB database URL")
	seqFile := flag.String("seq-file", "", "Path for change-feed checkpoint persistence (empty disables)")
	dumpDir := flag.String("dump-dir", "", "Directory for forensic document dumps (empty disables)")
	timeZone := flag.String("tz", "Europe/Kiev", "IANA time zone for dateModified stamps")
	workers := flag.Int("workers", 4, "Concurrent document resolutions")
	healthPort := flag.Int("health-port", 8080, "Status HTTP server port")
	pollTimeout := flag.Duration("poll-timeout", 55*time.Second, "Change-feed longpoll timeout")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	concordlog.SetLogger(true, level)
	logger := concordlog.GetLogger()
	defer logger.Sync()

	loc, err := time.LoadLocation(*timeZone)
	if err != nil {
		logger.Fatal("Invalid time zone", zap.String("tz", *timeZone), zap.Error(err))
	}

	if *dumpDir != "" {
		if err := os.MkdirAll(*dumpDir, 0o755); err != nil {
			logger.Fatal("Failed to create dump directory", zap.String("path", *dumpDir), zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := store.NewCouchClient(*couchURL, nil, 10*time.Second)
	res := resolver.New(client,
		resolver.WithTimeZone(loc),
		resolver.WithDumpDir(*dumpDir),
	)

	stats := &health.Stats{}
	statusServer := health.NewServer(*healthPort, stats)
	statusServer.Start()
	defer statusServer.Close()

	pool := dispatch.NewDispatcher(ctx, *workers, *workers*2)

	handle := func(ctx context.Context, rec feed.Record) {
		if rec.Doc == nil {
			return
		}
		doc := rec.Doc
		if err := pool.Submit(ctx, func(ctx context.Context) {
			outcome, err := res.Resolve(ctx, doc)
			if err != nil {
				concordlog.Warn("resolution rejected", zap.String("id", rec.ID), zap.Error(err))
				return
			}
			stats.Record(outcome)
		}); err != nil {
			concordlog.Warn("dispatch failed", zap.String("id", rec.ID), zap.Error(err))
		}
	}

	checkpoint := feed.NewCheckpoint(*seqFile)
	consumer := feed.NewConsumer(feed.NewCouchFeedClient(*couchURL, nil), handle, checkpoint, *pollTimeout)

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("Starting conflict resolution daemon",
		zap.String("couch", *couchURL),
		zap.Int("workers", *workers),
		zap.String("tz", *timeZone),
	)
	err = consumer.Run(ctx)
	pool.Close()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Change feed consumer failed", zap.Error(err))
	}
	logger.Info("Daemon stopped")
}
