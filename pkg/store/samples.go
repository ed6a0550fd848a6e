package store

import (
	"database/sql"
	"fmt"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

type sampleRow struct {
	ID           int64          `db:"id"`
	NodeID       int64          `db:"node_id"`
	Timestamp    string         `db:"timestamp"`
	Status       string         `db:"status"`
	ResponseTime sql.NullInt64  `db:"response_time"`
	Details      sql.NullString `db:"details"`
}

func (r sampleRow) toSample() (model.ProbeSample, error) {
	at, err := parseTime(r.Timestamp)
	if err != nil {
		return model.ProbeSample{}, fmt.Errorf("store: parse sample timestamp: %w", err)
	}
	s := model.ProbeSample{
		ID:     r.ID,
		NodeID: r.NodeID,
		At:     at,
		Status: model.ParseNodeStatus(r.Status),
	}
	if r.ResponseTime.Valid {
		v := int(r.ResponseTime.Int64)
		s.ResponseTimeMs = &v
	}
	if r.Details.Valid {
		v := r.Details.String
		s.Detail = &v
	}
	return s, nil
}

// SampleRepo provides append/read access to probe_samples.
type SampleRepo struct {
	db *DB
}

// Add persists a sample and returns its assigned id.
func (r *SampleRepo) Add(s *model.ProbeSample) (int64, error) {
	var responseTime sql.NullInt64
	if s.ResponseTimeMs != nil {
		responseTime = sql.NullInt64{Int64: int64(*s.ResponseTimeMs), Valid: true}
	}
	var details sql.NullString
	if s.Detail != nil {
		details = sql.NullString{String: *s.Detail, Valid: true}
	}

	query := `
		INSERT INTO probe_samples (node_id, timestamp, status, response_time, details)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.Exec(query, s.NodeID, formatTime(s.At), string(s.Status), responseTime, details)
	if err != nil {
		return 0, fmt.Errorf("store: add_probe_sample(node=%d): %w", s.NodeID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add_probe_sample: last insert id: %w", err)
	}
	return id, nil
}

// List returns samples for a node, newest first. limit <= 0 means
// unbounded.
func (r *SampleRepo) List(nodeID int64, limit int) ([]model.ProbeSample, error) {
	var rows []sampleRow
	query := `SELECT * FROM probe_samples WHERE node_id = ? ORDER BY timestamp DESC, id DESC`
	args := []interface{}{nodeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list_probe_samples(%d): %w", nodeID, err)
	}

	samples := make([]model.ProbeSample, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSample()
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Latest returns the most recent sample recorded for a node, or
// (model.ProbeSample{}, false, nil) if none exists.
func (r *SampleRepo) Latest(nodeID int64) (model.ProbeSample, bool, error) {
	var row sampleRow
	query := `SELECT * FROM probe_samples WHERE node_id = ? ORDER BY timestamp DESC, id DESC LIMIT 1`
	err := r.db.Get(&row, query, nodeID)
	if err == sql.ErrNoRows {
		return model.ProbeSample{}, false, nil
	}
	if err != nil {
		return model.ProbeSample{}, false, fmt.Errorf("store: latest_probe_sample(%d): %w", nodeID, err)
	}
	s, err := row.toSample()
	if err != nil {
		return model.ProbeSample{}, false, err
	}
	return s, true, nil
}
