package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/junsooki/remoteplay/internal/config"
	xlog "github.com/junsooki/remoteplay/internal/log"
	"github.com/junsooki/remoteplay/internal/media"
	"github.com/junsooki/remoteplay/internal/session"
	"github.com/junsooki/remoteplay/internal/signaling"
)

func main() {
	cfg, err := config.Parse("remoteplay", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "remoteplay: %v\n", err)
		os.Exit(2)
	}

	xlog.Configure(xlog.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := xlog.WithComponent("player")

	logger.Info().Msg("RemotePlay starting")
	logger.Info().Str("url", cfg.Signaling.URL()).Msg("  Signaling")
	logger.Info().Int("count", len(cfg.Videos)).Str("first", cfg.Videos[0]).Msg("  Videos")
	if cfg.Signaling.InsecureSkipVerify {
		logger.Warn().Msg("TLS certificate verification is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("player stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, in io.Reader, out io.Writer) error {
	term := newTerminal(out)
	m := session.New(session.Options{
		Videos:       cfg.Videos,
		PollInterval: cfg.PollInterval,
		SeekThrottle: cfg.SeekThrottle,
		NewChannel:   channelFactory(cfg.Signaling, xlog.WithComponent("signaling")),
		NewEngine:    media.NewPionFactory(cfg.ICEServers, xlog.WithComponent("media")),
		Presenter:    term,
		Logger:       xlog.WithComponent("session"),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go readLines(ctx, in, lines)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				err := dispatch(line, m)
				if errors.Is(err, errQuit) {
					return nil
				}
				if err != nil {
					term.printf("%v", err)
				}
			}
		}
	})
	return g.Wait()
}

// readLines forwards lines from in until EOF or ctx is done. A blocked read
// is not interrupted; the process exits with it pending.
func readLines(ctx context.Context, in io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-ctx.Done():
			return
		}
	}
}

func channelFactory(cfg config.SignalingConfig, logger zerolog.Logger) session.ChannelFactory {
	url := cfg.URL()
	return func(gen uint64, sessionID string, events chan<- signaling.Event) session.Channel {
		return signaling.New(signaling.Options{
			URL:                url,
			Generation:         gen,
			SessionID:          sessionID,
			Events:             events,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			PingInterval:       cfg.PingInterval,
			WriteTimeout:       cfg.WriteTimeout,
			HandshakeTimeout:   cfg.HandshakeTimeout,
			CloseTimeout:       cfg.CloseTimeout,
			QueueSize:          cfg.QueueSize,
			Logger:             logger,
		})
	}
}
