package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/kstaniek/go-twitch-irc/internal/metrics"
	"github.com/kstaniek/go-twitch-irc/twitchirc"
)

func main() {
	cfg, showVersion := parseFlags()
	if showVersion {
		fmt.Printf("twitch-chat-client %s (commit %s, built %s)\n", version, commit, date)
		return
	}
	if cfg == nil {
		os.Exit(2)
	}
	l := setupLogger(cfg.logFormat, cfg.logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	creds := twitchirc.NewStaticCredentials(cfg.login, cfg.token)
	if cfg.login == "" {
		creds = twitchirc.NewEnvCredentials()
	}

	conn, err := twitchirc.Connect(ctx, twitchirc.Config{
		Credentials:        creds,
		Limiter:            twitchirc.NewRateLimiter(cfg.rateLimit),
		Addr:               cfg.addr,
		ConnectTimeout:     cfg.connectTimeout,
		NewConnectionEvery: cfg.newConnectionEvery,
	})
	if err != nil {
		l.Error("connect_error", "error", err)
		os.Exit(1)
	}

	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		metrics.SetReadinessFunc(func() bool { return ctx.Err() == nil })
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()

		if cfg.mdnsEnable {
			port := portFromAddr(cfg.metricsAddr)
			cleanupMDNS, merr := startMDNS(ctx, cfg, port)
			if merr != nil {
				l.Warn("mdns_start_failed", "error", merr)
			} else {
				l.Info("mdns_started", "service", mdnsServiceType, "port", port)
				defer cleanupMDNS()
			}
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		joined := false
		for ev := range conn.Events() {
			switch ev.Kind {
			case twitchirc.EventStateOpen:
				l.Info("connection_open")
				if !joined {
					joined = true
					reply := make(chan error, 1)
					conn.Send(joinFrame(cfg.channel), reply)
					go func() {
						if err := <-reply; err != nil {
							l.Error("join_error", "channel", cfg.channel, "error", err)
						}
					}()
				}
				metrics.SetConnectionState(metrics.StateOpen)
			case twitchirc.EventMessage:
				logMessage(l, ev.Message)
			case twitchirc.EventStateClosed:
				l.Info("connection_closed", "cause", ev.Cause)
				metrics.SetConnectionState(metrics.StateClosed)
				cancel()
			}
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigCh:
		l.Info("shutdown_signal", "signal", s.String())
	case <-ctx.Done():
	}
	conn.Close()
	cancel()
	wg.Wait()
}

func portFromAddr(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		if idx := strings.LastIndex(addr, ":"); idx >= 0 {
			p = addr[idx+1:]
		}
	}
	n, _ := strconv.Atoi(p)
	return n
}
