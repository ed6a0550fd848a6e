package engine

import "github.com/last-emo-boy/net-monitor/pkg/model"

// applyStateMachine derives the next status and failure count for a node
// given its current status, the outcome of its most recent probe, and
// its configured failure threshold. A single success always recovers to
// Online; repeated failure escalates Online/Degraded toward Offline once
// consecutive_failures reaches max.
func applyStateMachine(current model.NodeStatus, succeeded bool, consecutiveFailures, maxCheckAttempts int) (model.NodeStatus, int) {
	if succeeded {
		return model.StatusOnline, 0
	}

	failures := consecutiveFailures + 1
	if failures < maxCheckAttempts {
		return model.StatusDegraded, failures
	}
	return model.StatusOffline, failures
}
