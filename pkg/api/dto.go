package api

import (
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// nodeDTO is the wire shape for a Node, with explicit snake_case tags
// the model package intentionally doesn't carry (Node is an internal
// type shared with the engine and store, not a wire format).
type nodeDTO struct {
	ID                  int64            `json:"id"`
	Name                string           `json:"name"`
	Detail              model.ProbeDetail `json:"detail"`
	Status              model.NodeStatus `json:"status"`
	MonitoringInterval  int              `json:"monitoring_interval"`
	RetryInterval       int              `json:"retry_interval"`
	MaxCheckAttempts    int              `json:"max_check_attempts"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	LastCheckAt         *time.Time       `json:"last_check"`
	LastResponseTimeMs  *int             `json:"response_time"`
	CredentialID        *string          `json:"credential_id"`
	DisplayOrder        int              `json:"display_order"`
}

func toNodeDTO(n model.Node) nodeDTO {
	return nodeDTO{
		ID:                  n.ID,
		Name:                n.Name,
		Detail:              n.Detail,
		Status:              n.Status,
		MonitoringInterval:  n.MonitoringIntervalS,
		RetryInterval:       n.RetryIntervalS,
		MaxCheckAttempts:    n.MaxCheckAttempts,
		ConsecutiveFailures: n.ConsecutiveFailures,
		LastCheckAt:         n.LastCheckAt,
		LastResponseTimeMs:  n.LastResponseTimeMs,
		CredentialID:        n.CredentialID,
		DisplayOrder:        n.DisplayOrder,
	}
}

func toNodeDTOs(nodes []model.Node) []nodeDTO {
	out := make([]nodeDTO, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, toNodeDTO(n))
	}
	return out
}

type sampleDTO struct {
	ID             int64            `json:"id"`
	NodeID         int64            `json:"node_id"`
	Timestamp      time.Time        `json:"timestamp"`
	Status         model.NodeStatus `json:"status"`
	ResponseTimeMs *int             `json:"response_time"`
	Detail         *string          `json:"details"`
}

func toSampleDTO(s model.ProbeSample) sampleDTO {
	return sampleDTO{
		ID:             s.ID,
		NodeID:         s.NodeID,
		Timestamp:      s.At,
		Status:         s.Status,
		ResponseTimeMs: s.ResponseTimeMs,
		Detail:         s.Detail,
	}
}

func toSampleDTOs(samples []model.ProbeSample) []sampleDTO {
	out := make([]sampleDTO, 0, len(samples))
	for _, s := range samples {
		out = append(out, toSampleDTO(s))
	}
	return out
}

type statusChangeDTO struct {
	ID         int64            `json:"id"`
	NodeID     int64            `json:"node_id"`
	FromStatus model.NodeStatus `json:"from_status"`
	ToStatus   model.NodeStatus `json:"to_status"`
	ChangedAt  time.Time        `json:"changed_at"`
	DurationMs *int64           `json:"duration_ms"`
}

func toStatusChangeDTO(sc model.StatusChange) statusChangeDTO {
	return statusChangeDTO{
		ID:         sc.ID,
		NodeID:     sc.NodeID,
		FromStatus: sc.FromStatus,
		ToStatus:   sc.ToStatus,
		ChangedAt:  sc.ChangedAt,
		DurationMs: sc.DurationMs,
	}
}

func toStatusChangeDTOs(changes []model.StatusChange) []statusChangeDTO {
	out := make([]statusChangeDTO, 0, len(changes))
	for _, c := range changes {
		out = append(out, toStatusChangeDTO(c))
	}
	return out
}

type credentialSummaryDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Type        model.SecretKind `json:"type"`
	Username    string           `json:"username,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	LastUsedAt  *time.Time       `json:"last_used_at,omitempty"`
}

func toCredentialSummaryDTO(c model.CredentialSummary) credentialSummaryDTO {
	return credentialSummaryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Type:        c.Type,
		Username:    c.Username,
		CreatedAt:   c.CreatedAt,
		LastUsedAt:  c.LastUsedAt,
	}
}

func toCredentialSummaryDTOs(summaries []model.CredentialSummary) []credentialSummaryDTO {
	out := make([]credentialSummaryDTO, 0, len(summaries))
	for _, c := range summaries {
		out = append(out, toCredentialSummaryDTO(c))
	}
	return out
}

// credentialRequest is the request body for creating or updating a
// credential. It carries secret material in the clear over the wire;
// callers are expected to front this API with TLS.
type credentialRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	Secret      secretRequestDTO `json:"secret" binding:"required"`
}

type secretRequestDTO struct {
	Type       model.SecretKind `json:"type" binding:"required"`
	Username   string           `json:"username"`
	Password   string           `json:"password"`
	KeyPath    string           `json:"path"`
	KeyData    string           `json:"key_bytes"`
	Passphrase string           `json:"passphrase"`
}

func (r secretRequestDTO) toSecret() model.Secret {
	secret := model.Secret{Kind: r.Type, Username: r.Username, KeyPath: r.KeyPath}
	if r.Password != "" {
		pw := model.NewSensitiveString(r.Password)
		secret.Password = &pw
	}
	if r.KeyData != "" {
		kd := model.NewSensitiveString(r.KeyData)
		secret.KeyData = &kd
	}
	if r.Passphrase != "" {
		ph := model.NewSensitiveString(r.Passphrase)
		secret.Passphrase = &ph
	}
	return secret
}
