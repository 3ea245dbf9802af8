package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/kstaniek/mavgw/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus counters
var (
	FramesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_frames_decoded_total",
		Help: "Total MAVLink frames successfully decoded from any connection.",
	})
	FramesEncoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_frames_encoded_total",
		Help: "Total MAVLink frames written to any connection.",
	})
	CRCErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_crc_errors_total",
		Help: "Total frames rejected due to CRC mismatch.",
	})
	UnknownMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_unknown_message_total",
		Help: "Total frames rejected because the message id is not in the loaded dialect.",
	})
	IncompatFlagErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_incompat_flag_errors_total",
		Help: "Total frames rejected due to unsupported incompat_flags bits.",
	})
	SigningRejects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_signing_rejects_total",
		Help: "Total v2 frames rejected by the signing verifier (bad digest, replay, unknown link).",
	})
	ResyncEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_resync_events_total",
		Help: "Total UDP datagrams discarded as too short to hold a frame; bytes the frame parser skips while searching for a magic byte are not counted.",
	})
	HubDroppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_hub_dropped_frames_total",
		Help: "Total frames dropped because a ground-control client's hub queue or a connection's outbound send queue was full.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_hub_kicked_clients_total",
		Help: "Total clients disconnected by the backpressure kick policy.",
	})
	HubRejectedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mavgw_hub_rejected_clients_total",
		Help: "Total client connection attempts rejected by the relay's max-clients limit.",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavgw_hub_active_clients",
		Help: "Current number of connected ground-control clients.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mavgw_hub_broadcast_fanout",
		Help: "Number of clients targeted in the most recent broadcast.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mavgw_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mavgw_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality)
const (
	ErrConnRead    = "conn_read"
	ErrConnWrite   = "conn_write"
	ErrConnDial    = "conn_dial"
	ErrAddrGrammar = "addr_grammar"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
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

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters for easy logging (avoid Prometheus scraping in-process).
var (
	localDecoded  uint64
	localEncoded  uint64
	localCRCErr   uint64
	localUnknown  uint64
	localSigRej   uint64
	localResync   uint64
	localHubDrop  uint64
	localHubKick  uint64
	localHubReject uint64
	localErrors   uint64
	localHubClients uint64
	localFanout   uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	FramesDecoded      uint64
	FramesEncoded      uint64
	CRCErrors          uint64
	UnknownMessages    uint64
	SigningRejects     uint64
	ResyncEvents       uint64
	HubDrops           uint64
	HubKicks           uint64
	HubRejects         uint64
	Errors             uint64 // sum across error labels
	HubClients         uint64
	Fanout             uint64
}

func Snap() Snapshot {
	return Snapshot{
		FramesDecoded:   atomic.LoadUint64(&localDecoded),
		FramesEncoded:   atomic.LoadUint64(&localEncoded),
		CRCErrors:       atomic.LoadUint64(&localCRCErr),
		UnknownMessages: atomic.LoadUint64(&localUnknown),
		SigningRejects:  atomic.LoadUint64(&localSigRej),
		ResyncEvents:    atomic.LoadUint64(&localResync),
		HubDrops:        atomic.LoadUint64(&localHubDrop),
		HubKicks:        atomic.LoadUint64(&localHubKick),
		HubRejects:      atomic.LoadUint64(&localHubReject),
		Errors:          atomic.LoadUint64(&localErrors),
		HubClients:      atomic.LoadUint64(&localHubClients),
		Fanout:          atomic.LoadUint64(&localFanout),
	}
}

func IncDecoded() {
	FramesDecoded.Inc()
	atomic.AddUint64(&localDecoded, 1)
}

func IncEncoded() {
	FramesEncoded.Inc()
	atomic.AddUint64(&localEncoded, 1)
}

func IncCRCError() {
	CRCErrors.Inc()
	atomic.AddUint64(&localCRCErr, 1)
}

func IncUnknownMessage() {
	UnknownMessages.Inc()
	atomic.AddUint64(&localUnknown, 1)
}

func IncIncompatFlagError() {
	IncompatFlagErrors.Inc()
}

func IncSigningReject() {
	SigningRejects.Inc()
	atomic.AddUint64(&localSigRej, 1)
}

func IncResync() {
	ResyncEvents.Inc()
	atomic.AddUint64(&localResync, 1)
}

func IncHubDrop() {
	HubDroppedFrames.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func IncHubReject() {
	HubRejectedClients.Inc()
	atomic.AddUint64(&localHubReject, 1)
}

func SetHubClients(n int) {
	HubActiveClients.Set(float64(n))
	atomic.StoreUint64(&localHubClients, uint64(n))
}

func SetBroadcastFanout(n int) {
	HubBroadcastFanout.Set(float64(n))
	atomic.StoreUint64(&localFanout, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// InitBuildInfo sets the build info gauge (should be called once at startup).
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{ErrConnRead, ErrConnWrite, ErrConnDial, ErrAddrGrammar} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil { // if not set yet, treat as ready so metrics endpoint doesn't flap
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
