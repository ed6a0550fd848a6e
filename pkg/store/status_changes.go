package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

type statusChangeRow struct {
	ID         int64         `db:"id"`
	NodeID     int64         `db:"node_id"`
	FromStatus string        `db:"from_status"`
	ToStatus   string        `db:"to_status"`
	ChangedAt  string        `db:"changed_at"`
	DurationMs sql.NullInt64 `db:"duration_ms"`
}

func (r statusChangeRow) toStatusChange() (model.StatusChange, error) {
	at, err := parseTime(r.ChangedAt)
	if err != nil {
		return model.StatusChange{}, fmt.Errorf("store: parse changed_at: %w", err)
	}
	sc := model.StatusChange{
		ID:         r.ID,
		NodeID:     r.NodeID,
		FromStatus: model.ParseNodeStatus(r.FromStatus),
		ToStatus:   model.ParseNodeStatus(r.ToStatus),
		ChangedAt:  at,
	}
	if r.DurationMs.Valid {
		v := r.DurationMs.Int64
		sc.DurationMs = &v
	}
	return sc, nil
}

// StatusChangeRepo provides append/read access to status_changes, plus
// the derived duration and uptime queries.
type StatusChangeRepo struct {
	db *DB
}

// Add persists a transition and returns its assigned id.
func (r *StatusChangeRepo) Add(sc *model.StatusChange) (int64, error) {
	var duration sql.NullInt64
	if sc.DurationMs != nil {
		duration = sql.NullInt64{Int64: *sc.DurationMs, Valid: true}
	}

	query := `
		INSERT INTO status_changes (node_id, from_status, to_status, changed_at, duration_ms)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.Exec(query, sc.NodeID, string(sc.FromStatus), string(sc.ToStatus), formatTime(sc.ChangedAt), duration)
	if err != nil {
		return 0, fmt.Errorf("store: add_status_change(node=%d): %w", sc.NodeID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add_status_change: last insert id: %w", err)
	}
	return id, nil
}

// List returns status changes for a node, newest first. limit <= 0
// means unbounded.
func (r *StatusChangeRepo) List(nodeID int64, limit int) ([]model.StatusChange, error) {
	var rows []statusChangeRow
	query := `SELECT * FROM status_changes WHERE node_id = ? ORDER BY changed_at DESC, id DESC`
	args := []interface{}{nodeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list_status_changes(%d): %w", nodeID, err)
	}

	changes := make([]model.StatusChange, 0, len(rows))
	for _, row := range rows {
		sc, err := row.toStatusChange()
		if err != nil {
			return nil, err
		}
		changes = append(changes, sc)
	}
	return changes, nil
}

// ascending returns every status change for a node ordered oldest first,
// the shape the duration and uptime computations need.
func (r *StatusChangeRepo) ascending(nodeID int64) ([]model.StatusChange, error) {
	var rows []statusChangeRow
	query := `SELECT * FROM status_changes WHERE node_id = ? ORDER BY changed_at ASC, id ASC`
	if err := r.db.Select(&rows, query, nodeID); err != nil {
		return nil, fmt.Errorf("store: status_changes(%d): %w", nodeID, err)
	}
	changes := make([]model.StatusChange, 0, len(rows))
	for _, row := range rows {
		sc, err := row.toStatusChange()
		if err != nil {
			return nil, err
		}
		changes = append(changes, sc)
	}
	return changes, nil
}

// CurrentStatusDuration returns the milliseconds since the node's most
// recent status change, or since its first-ever sample if it has never
// transitioned, or nil if the node has no history at all.
func (r *StatusChangeRepo) CurrentStatusDuration(nodeID int64, samples *SampleRepo) (*int64, error) {
	changes, err := r.ascending(nodeID)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if len(changes) > 0 {
		since = changes[len(changes)-1].ChangedAt
	} else {
		all, err := samples.List(nodeID, 0)
		if err != nil {
			return nil, err
		}
		if len(all) == 0 {
			return nil, nil
		}
		// List is newest first, so the first-ever sample is last.
		since = all[len(all)-1].At
	}

	ms := time.Since(since).Milliseconds()
	return &ms, nil
}

// UptimePercentage returns the fraction (0-100) of [start, end] the node
// spent Online, derived from its status-change timeline. currentStatus
// is consulted only when the node has no recorded transitions at all.
func (r *StatusChangeRepo) UptimePercentage(nodeID int64, start, end time.Time, currentStatus model.NodeStatus) (float64, error) {
	changes, err := r.ascending(nodeID)
	if err != nil {
		return 0, err
	}
	if len(changes) == 0 {
		if currentStatus == model.StatusOnline {
			return 100.0, nil
		}
		return 0.0, nil
	}

	totalWindow := end.Sub(start)
	if totalWindow <= 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	var onlineDuration time.Duration

	segStart := start
	segStatus := changes[0].FromStatus
	for i := 0; i <= len(changes); i++ {
		var segEnd time.Time
		if i < len(changes) {
			segEnd = changes[i].ChangedAt
		} else {
			segEnd = end
			if now.Before(segEnd) {
				segEnd = now
			}
		}

		clippedStart := segStart
		if clippedStart.Before(start) {
			clippedStart = start
		}
		clippedEnd := segEnd
		if clippedEnd.After(end) {
			clippedEnd = end
		}
		if clippedEnd.After(clippedStart) && segStatus == model.StatusOnline {
			onlineDuration += clippedEnd.Sub(clippedStart)
		}

		if i < len(changes) {
			segStart = changes[i].ChangedAt
			segStatus = changes[i].ToStatus
		}
	}

	pct := (float64(onlineDuration) / float64(totalWindow)) * 100.0
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}
