// Package model defines the data types shared by the store, the probe
// adapters, and the monitoring engine.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// NodeStatus is one of the three visible states a node can be in.
type NodeStatus string

const (
	StatusOnline   NodeStatus = "Online"
	StatusDegraded NodeStatus = "Degraded"
	StatusOffline  NodeStatus = "Offline"
)

// ParseNodeStatus maps a persisted status string to a NodeStatus.
// Unknown strings map to Offline rather than dropping the row.
func ParseNodeStatus(s string) NodeStatus {
	switch NodeStatus(s) {
	case StatusOnline:
		return StatusOnline
	case StatusDegraded:
		return StatusDegraded
	default:
		return StatusOffline
	}
}

// ProbeKind identifies which probe adapter a node uses. It is also the
// wire-format JSON discriminator (the "type" field).
type ProbeKind string

const (
	KindHTTP ProbeKind = "Http"
	KindPing ProbeKind = "Ping"
	KindTCP  ProbeKind = "Tcp"
)

// HTTPDetail carries the parameters of an HTTP probe.
type HTTPDetail struct {
	URL            string `json:"url"`
	ExpectedStatus int    `json:"expected_status"`
}

// PingDetail carries the parameters of an ICMP ping probe.
type PingDetail struct {
	Host    string `json:"host"`
	Count   int    `json:"count"`
	Timeout int    `json:"timeout_s"`
}

// TCPDetail carries the parameters of a TCP connect probe.
type TCPDetail struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Timeout int    `json:"timeout_s"`
}

// ProbeDetail is a tagged union over the three probe kinds. Exactly one
// of HTTP, Ping, TCP is populated, matching Kind.
type ProbeDetail struct {
	Kind ProbeKind
	HTTP *HTTPDetail
	Ping *PingDetail
	TCP  *TCPDetail
}

// MarshalJSON renders the detail as {"type": "<Kind>", ...fields}.
func (d ProbeDetail) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindHTTP:
		if d.HTTP == nil {
			return nil, fmt.Errorf("model: Http detail missing HTTP fields")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			HTTPDetail
		}{Type: string(KindHTTP), HTTPDetail: *d.HTTP})
	case KindPing:
		if d.Ping == nil {
			return nil, fmt.Errorf("model: Ping detail missing Ping fields")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			PingDetail
		}{Type: string(KindPing), PingDetail: *d.Ping})
	case KindTCP:
		if d.TCP == nil {
			return nil, fmt.Errorf("model: Tcp detail missing Tcp fields")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			TCPDetail
		}{Type: string(KindTCP), TCPDetail: *d.TCP})
	default:
		return nil, fmt.Errorf("model: unknown probe kind %q", d.Kind)
	}
}

// UnmarshalJSON parses a tagged-union ProbeDetail, ignoring unknown fields.
func (d *ProbeDetail) UnmarshalJSON(data []byte) error {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("model: decode probe detail tag: %w", err)
	}

	switch ProbeKind(tag.Type) {
	case KindHTTP:
		var h HTTPDetail
		if err := json.Unmarshal(data, &h); err != nil {
			return fmt.Errorf("model: decode Http detail: %w", err)
		}
		d.Kind = KindHTTP
		d.HTTP = &h
		d.Ping = nil
		d.TCP = nil
	case KindPing:
		var p PingDetail
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("model: decode Ping detail: %w", err)
		}
		d.Kind = KindPing
		d.Ping = &p
		d.HTTP = nil
		d.TCP = nil
	case KindTCP:
		var t TCPDetail
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("model: decode Tcp detail: %w", err)
		}
		d.Kind = KindTCP
		d.TCP = &t
		d.HTTP = nil
		d.Ping = nil
	default:
		return fmt.Errorf("model: unknown probe type %q", tag.Type)
	}
	return nil
}

// Default tuning values applied when an import omits them.
const (
	DefaultMaxCheckAttempts = 3
	DefaultRetryInterval    = 15
)

// Node is a monitored endpoint.
type Node struct {
	ID                  int64
	Name                string
	Detail              ProbeDetail
	Status              NodeStatus
	MonitoringIntervalS int
	RetryIntervalS      int
	MaxCheckAttempts    int
	ConsecutiveFailures int
	LastCheckAt         *time.Time
	LastResponseTimeMs  *int
	CredentialID        *string
	DisplayOrder        int
}

// EffectiveIntervalSeconds returns the cadence that should be used to
// schedule this node's next probe, given its current status.
func (n *Node) EffectiveIntervalSeconds() int {
	if n.Status == StatusDegraded {
		return n.RetryIntervalS
	}
	return n.MonitoringIntervalS
}

// ProbeSample is a recorded check result.
type ProbeSample struct {
	ID               int64
	NodeID           int64
	At               time.Time
	Status           NodeStatus
	ResponseTimeMs   *int
	Detail           *string
}

// StatusChange is a persisted transition event.
type StatusChange struct {
	ID         int64
	NodeID     int64
	FromStatus NodeStatus
	ToStatus   NodeStatus
	ChangedAt  time.Time
	DurationMs *int64
}

// NodeImport is the shape used by the JSON import/export format.
type NodeImport struct {
	Name                string      `json:"name"`
	Detail              ProbeDetail `json:"detail"`
	MonitoringInterval  int         `json:"monitoring_interval"`
	CredentialID        *string     `json:"credential_id"`
	MaxCheckAttempts    *int        `json:"max_check_attempts,omitempty"`
	RetryInterval       *int        `json:"retry_interval,omitempty"`
}

// ApplyDefaults fills MaxCheckAttempts/RetryInterval when absent.
func (ni *NodeImport) ApplyDefaults() (maxCheckAttempts, retryInterval int) {
	maxCheckAttempts = DefaultMaxCheckAttempts
	if ni.MaxCheckAttempts != nil {
		maxCheckAttempts = *ni.MaxCheckAttempts
	}
	retryInterval = DefaultRetryInterval
	if ni.RetryInterval != nil {
		retryInterval = *ni.RetryInterval
	}
	return
}
