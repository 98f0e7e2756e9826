package metrics

import (
	"net/http"
	"sync"

	"github.com/kstaniek/go-twitch-irc/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Connection lifecycle states, mirrored onto ConnectionState as a gauge
// since Prometheus has no native enum type.
const (
	StateInitializing = 0
	StateOpen         = 1
	StateClosed       = 2
)

var (
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_received_total",
		Help: "Total IRC messages received from the server, labelled by command name.",
	}, []string{"command"})
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Total IRC frames written to the transport, labelled by command name.",
	}, []string{"command"})
	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connection_state",
		Help: "Current connection lifecycle state (0=initializing, 1=open, 2=closed).",
	})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})
	PingsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pings_sent_total",
		Help: "Total liveness PING frames emitted.",
	})
	PingTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ping_timeouts_total",
		Help: "Total times a PONG was not observed within the liveness window.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrLogin       = "login"
	ErrConnect     = "connect"
	ErrConnectWait = "connect_timeout"
	ErrOutgoing    = "outgoing"
	ErrIncoming    = "incoming"
	ErrIRCParse    = "irc_parse"
)

// StartHTTP serves Prometheus metrics at /metrics and a readiness probe at
// /ready on addr.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

func IncMessagesReceived(command string) { MessagesReceived.WithLabelValues(command).Inc() }
func IncMessagesSent(command string)     { MessagesSent.WithLabelValues(command).Inc() }
func SetConnectionState(state int)       { ConnectionState.Set(float64(state)) }
func IncError(where string)              { Errors.WithLabelValues(where).Inc() }
func IncPingSent()                       { PingsSent.Inc() }
func IncPingTimeout()                    { PingTimeouts.Inc() }

// InitBuildInfo sets the build info gauge and pre-registers error label
// series so the first real error doesn't pay registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrLogin, ErrConnect, ErrConnectWait, ErrOutgoing, ErrIncoming, ErrIRCParse} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function, defaulting to ready
// when none is set so the endpoint doesn't flap before startup completes.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}
