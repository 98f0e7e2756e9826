package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type appConfig struct {
	channel            string
	login              string
	token              string
	addr               string
	connectTimeout     time.Duration
	newConnectionEvery time.Duration
	rateLimit          int
	logFormat          string
	logLevel           string
	metricsAddr        string
	mdnsEnable         bool
	mdnsName           string
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	channel := flag.String("channel", "", "Channel to join (without leading #)")
	loginName := flag.String("login", "", "Twitch login name; when empty, TWITCH_CHAT_LOGIN is used, and the connection fails at login if that is empty too")
	token := flag.String("token", "", "OAuth token (without the oauth: prefix)")
	addr := flag.String("addr", "", "Twitch chat endpoint; empty uses the default TLS endpoint")
	connectTimeout := flag.Duration("connect-timeout", 10*time.Second, "Transport connect timeout")
	newConnEvery := flag.Duration("new-connection-every", time.Second, "Minimum spacing between new connection attempts")
	rateLimit := flag.Int("rate-limit", 1, "Maximum connection attempts in flight at once")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	mdnsEnable := flag.Bool("mdns-enable", false, "Advertise the metrics endpoint via mDNS/Avahi")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default twitch-chat-client-<hostname>)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.channel = *channel
	cfg.login = *loginName
	cfg.token = *token
	cfg.addr = *addr
	cfg.connectTimeout = *connectTimeout
	cfg.newConnectionEvery = *newConnEvery
	cfg.rateLimit = *rateLimit
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	if c.channel == "" {
		return errors.New("-channel is required")
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.connectTimeout <= 0 {
		return fmt.Errorf("connect-timeout must be > 0")
	}
	if c.newConnectionEvery <= 0 {
		return fmt.Errorf("new-connection-every must be > 0")
	}
	if c.rateLimit <= 0 {
		return fmt.Errorf("rate-limit must be > 0")
	}
	return nil
}

// applyEnvOverrides maps TWITCH_CHAT_* environment variables onto config
// fields unless a corresponding flag was explicitly set (flag wins over env).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["channel"]; !ok {
		if v, ok := get("TWITCH_CHAT_CHANNEL"); ok && v != "" {
			c.channel = v
		}
	}
	if _, ok := set["login"]; !ok {
		if v, ok := get("TWITCH_CHAT_LOGIN"); ok && v != "" {
			c.login = v
		}
	}
	if _, ok := set["token"]; !ok {
		if v, ok := get("TWITCH_CHAT_OAUTH_TOKEN"); ok && v != "" {
			c.token = strings.TrimPrefix(v, "oauth:")
		}
	}
	if _, ok := set["addr"]; !ok {
		if v, ok := get("TWITCH_CHAT_ADDR"); ok && v != "" {
			c.addr = v
		}
	}
	if _, ok := set["connect-timeout"]; !ok {
		if v, ok := get("TWITCH_CHAT_CONNECT_TIMEOUT"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.connectTimeout = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TWITCH_CHAT_CONNECT_TIMEOUT: %w", err)
			}
		}
	}
	if _, ok := set["new-connection-every"]; !ok {
		if v, ok := get("TWITCH_CHAT_NEW_CONNECTION_EVERY"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				c.newConnectionEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TWITCH_CHAT_NEW_CONNECTION_EVERY: %w", err)
			}
		}
	}
	if _, ok := set["rate-limit"]; !ok {
		if v, ok := get("TWITCH_CHAT_RATE_LIMIT"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.rateLimit = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid TWITCH_CHAT_RATE_LIMIT: %w", err)
			}
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("TWITCH_CHAT_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("TWITCH_CHAT_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("TWITCH_CHAT_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("TWITCH_CHAT_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("TWITCH_CHAT_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	return firstErr
}
