// Package engine implements the monitoring engine: the single-threaded
// scheduler loop that owns a working set of nodes, invokes probes on
// their configured cadence, runs each result through the soft/hard
// state machine, and persists transitions and samples.
package engine

import (
	"context"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/logging"
	"github.com/last-emo-boy/net-monitor/pkg/model"
	"github.com/last-emo-boy/net-monitor/pkg/probe"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

// DefaultHTTPTimeout bounds HTTP probes. Unlike ping/tcp, HTTPDetail
// carries no per-node timeout field, so the engine applies a single
// fixed deadline.
const DefaultHTTPTimeout = 10 * time.Second

// DefaultPollInterval is how long the engine waits on its stop channel
// after each scheduling pass.
const DefaultPollInterval = time.Second

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to drive
// the scheduler through deterministic instants.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPollInterval overrides the stop-channel wait between passes.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// WithUpdatesBuffer sets the buffer size of the outbound NodeUpdate
// channel. Default is unbuffered.
func WithUpdatesBuffer(n int) Option {
	return func(e *Engine) { e.updatesBuffer = n }
}

// AdapterFactory builds the probe.Adapter for a node's detail. Tests
// substitute a fake factory to avoid real network I/O.
type AdapterFactory func(model.ProbeDetail) probe.Adapter

// WithAdapterFactory overrides how the engine builds probe adapters.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(e *Engine) { e.adapterFactory = f }
}

// Engine is the monitoring scheduler. Its working set and runtime maps
// are owned exclusively by the loop goroutine; callers interact only
// through Commands(), Updates(), and Stop().
type Engine struct {
	nodes   *store.NodeRepo
	samples *store.SampleRepo
	changes *store.StatusChangeRepo
	logger  *logging.Logger

	now            func() time.Time
	pollInterval   time.Duration
	updatesBuffer  int
	adapterFactory AdapterFactory

	workingSet     map[int64]*model.Node
	lastAttempt    map[int64]time.Time
	lastTransition map[int64]time.Time
	previousStatus map[int64]model.NodeStatus

	configCh chan ConfigUpdate
	updateCh chan model.Node
	stopCh   chan struct{}
}

// New builds an Engine seeded with initial, its caller-supplied starting
// working set (typically everything store.NodeRepo.List returns).
// Per node it seeds previousStatus from the latest persisted sample,
// falling back to the node's own Status field if no sample exists or
// the read fails.
func New(initial []model.Node, nodes *store.NodeRepo, samples *store.SampleRepo, changes *store.StatusChangeRepo, logger *logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		nodes:          nodes,
		samples:        samples,
		changes:        changes,
		logger:         logger,
		now:            time.Now,
		pollInterval:   DefaultPollInterval,
		adapterFactory: probe.New,
		workingSet:     make(map[int64]*model.Node, len(initial)),
		lastAttempt:    make(map[int64]time.Time),
		lastTransition: make(map[int64]time.Time),
		previousStatus: make(map[int64]model.NodeStatus, len(initial)),
		configCh:       make(chan ConfigUpdate, 16),
		stopCh:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.updateCh = make(chan model.Node, e.updatesBuffer)

	for i := range initial {
		n := initial[i]
		e.workingSet[n.ID] = &n
		e.previousStatus[n.ID] = e.seedPreviousStatus(&n)
	}
	return e
}

func (e *Engine) seedPreviousStatus(n *model.Node) model.NodeStatus {
	sample, ok, err := e.samples.Latest(n.ID)
	if err != nil || !ok {
		return n.Status
	}
	return sample.Status
}

// Commands returns the inbound ConfigUpdate channel.
func (e *Engine) Commands() chan<- ConfigUpdate { return e.configCh }

// Updates returns the outbound NodeUpdate channel.
func (e *Engine) Updates() <-chan model.Node { return e.updateCh }

// Stop signals the engine to finish its in-flight probe, if any, and
// exit before the next scheduling pass.
func (e *Engine) Stop() {
	select {
	case <-e.stopCh:
	default:
		close(e.stopCh)
	}
}

// Run executes the main scheduling loop until Stop is called or ctx is
// cancelled. It returns nil on a clean stop.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.drainConfig()

		for id, n := range e.workingSet {
			if !e.due(n) {
				continue
			}
			if e.runProbeCycle(ctx, id, n) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-e.stopCh:
			return nil
		case <-time.After(e.pollInterval):
		}
	}
}

func (e *Engine) drainConfig() {
	for {
		select {
		case cmd := <-e.configCh:
			e.applyConfigUpdate(cmd)
		default:
			return
		}
	}
}

func (e *Engine) applyConfigUpdate(cmd ConfigUpdate) {
	switch cmd.Kind {
	case ConfigUpdateAdd:
		n := cmd.Node
		if _, exists := e.workingSet[n.ID]; exists {
			return
		}
		e.workingSet[n.ID] = &n
		e.previousStatus[n.ID] = e.seedPreviousStatus(&n)

	case ConfigUpdateModify:
		existing, ok := e.workingSet[cmd.Node.ID]
		if !ok {
			return
		}
		incoming := cmd.Node
		existing.Name = incoming.Name
		existing.Detail = incoming.Detail
		existing.MonitoringIntervalS = incoming.MonitoringIntervalS
		existing.RetryIntervalS = incoming.RetryIntervalS
		existing.MaxCheckAttempts = incoming.MaxCheckAttempts
		existing.CredentialID = incoming.CredentialID
		delete(e.lastAttempt, cmd.Node.ID)

	case ConfigUpdateDelete:
		delete(e.workingSet, cmd.ID)
		delete(e.lastAttempt, cmd.ID)
		delete(e.lastTransition, cmd.ID)
		delete(e.previousStatus, cmd.ID)
	}
}

func (e *Engine) due(n *model.Node) bool {
	last, seen := e.lastAttempt[n.ID]
	if !seen {
		return true
	}
	interval := time.Duration(n.EffectiveIntervalSeconds()) * time.Second
	return e.now().Sub(last) >= interval
}

func (e *Engine) probeTimeout(n *model.Node) time.Duration {
	switch n.Detail.Kind {
	case model.KindPing:
		return time.Duration(n.Detail.Ping.Timeout) * time.Second
	case model.KindTCP:
		return time.Duration(n.Detail.TCP.Timeout) * time.Second
	default:
		return DefaultHTTPTimeout
	}
}

// runProbeCycle executes one probe-and-persist cycle for a due node. It
// returns true if Stop is called or ctx is cancelled while the update
// waits to be delivered on the outbound channel, and the loop must
// terminate.
func (e *Engine) runProbeCycle(ctx context.Context, id int64, n *model.Node) (stopped bool) {
	e.lastAttempt[id] = e.now()

	traceID := logging.NewTraceID()
	probeCtx := logging.WithTraceIDContext(ctx, traceID)

	timeout := e.probeTimeout(n)
	deadlineCtx, cancel := context.WithTimeout(probeCtx, timeout)
	outcome := e.adapterFactory(n.Detail).Probe(deadlineCtx)
	cancel()

	if e.logger != nil {
		e.logger.LogProbeCycle(probeCtx, id, string(n.Detail.Kind), outcome.OK, outcome.LatencyMs, outcome.Detail)
	}

	prevStatus := e.previousStatus[id]
	newStatus, newFailures := applyStateMachine(n.Status, outcome.OK, n.ConsecutiveFailures, n.MaxCheckAttempts)

	nowWall := e.now()
	transitioned := prevStatus != newStatus

	var transitionDuration *int64
	if transitioned {
		if last, ok := e.lastTransition[id]; ok {
			ms := nowWall.Sub(last).Milliseconds()
			transitionDuration = &ms
		}
		sc := model.StatusChange{
			NodeID:     id,
			FromStatus: prevStatus,
			ToStatus:   newStatus,
			ChangedAt:  nowWall,
			DurationMs: transitionDuration,
		}
		if _, err := e.changes.Add(&sc); e.logger != nil {
			e.logger.LogStoreWrite(probeCtx, "add_status_change", err)
		}
		e.lastTransition[id] = nowWall
		if e.logger != nil {
			e.logger.LogTransition(probeCtx, id, string(prevStatus), string(newStatus))
		}
	}

	n.Status = newStatus
	n.ConsecutiveFailures = newFailures
	n.LastCheckAt = &nowWall
	latency := outcome.LatencyMs
	n.LastResponseTimeMs = &latency

	if err := e.nodes.Update(n); e.logger != nil {
		e.logger.LogStoreWrite(probeCtx, "update_node", err)
	}

	_, hadPriorSample, err := e.samples.Latest(id)
	if err != nil && e.logger != nil {
		e.logger.LogStoreWrite(probeCtx, "latest_probe_sample", err)
	}
	if shouldPersistSample(hadPriorSample, transitioned) {
		detail := outcome.Detail
		sample := model.ProbeSample{
			NodeID:         id,
			At:             nowWall,
			Status:         newStatus,
			ResponseTimeMs: &latency,
			Detail:         &detail,
		}
		if _, err := e.samples.Add(&sample); e.logger != nil {
			e.logger.LogStoreWrite(probeCtx, "add_probe_sample", err)
		}
	}

	e.previousStatus[id] = newStatus

	select {
	case e.updateCh <- *n:
		return false
	case <-e.stopCh:
		return true
	case <-ctx.Done():
		return true
	}
}

// shouldPersistSample retains a sample only if it is the node's
// first-ever sample, or it accompanies a state transition.
func shouldPersistSample(hadPriorSample bool, transitioned bool) bool {
	return !hadPriorSample || transitioned
}
