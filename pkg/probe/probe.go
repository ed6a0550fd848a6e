// Package probe implements the HTTP, ICMP ping, and TCP connect probe
// adapters the monitoring engine invokes.
package probe

import (
	"context"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// Outcome is the result of a single probe attempt.
type Outcome struct {
	OK        bool
	LatencyMs int
	Detail    string
}

// Adapter executes a single bounded probe attempt. Implementations MUST
// respect ctx's deadline and MUST NOT retry internally. A failed probe
// is reported through Outcome.OK, not an error return: probe failure
// is a normal input to the state machine, not an engine-level error.
type Adapter interface {
	Probe(ctx context.Context) Outcome
}

// timed runs fn and wraps its result with the wall-clock latency of the
// call, in whole milliseconds, regardless of success or failure.
func timed(fn func() (bool, string)) Outcome {
	start := time.Now()
	ok, detail := fn()
	latency := time.Since(start).Milliseconds()
	return Outcome{OK: ok, LatencyMs: int(latency), Detail: detail}
}

// New builds the adapter matching detail's probe kind.
func New(detail model.ProbeDetail) Adapter {
	switch detail.Kind {
	case model.KindHTTP:
		return &httpAdapter{detail: *detail.HTTP}
	case model.KindPing:
		return &pingAdapter{detail: *detail.Ping}
	case model.KindTCP:
		return &tcpAdapter{detail: *detail.TCP}
	default:
		return unsupportedAdapter{kind: string(detail.Kind)}
	}
}

type unsupportedAdapter struct{ kind string }

func (u unsupportedAdapter) Probe(ctx context.Context) Outcome {
	return timed(func() (bool, string) {
		return false, "unsupported probe kind: " + u.kind
	})
}
