package store

import (
	"database/sql"
	"fmt"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// nodeRow is the sqlx scan target for the nodes table.
type nodeRow struct {
	ID                  int64          `db:"id"`
	Name                string         `db:"name"`
	MonitorType         string         `db:"monitor_type"`
	Status              string         `db:"status"`
	LastCheck           sql.NullString `db:"last_check"`
	ResponseTime        sql.NullInt64  `db:"response_time"`
	MonitoringInterval  int            `db:"monitoring_interval"`
	RetryInterval       int            `db:"retry_interval"`
	MaxCheckAttempts    int            `db:"max_check_attempts"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
	CredentialID        sql.NullString `db:"credential_id"`
	DisplayOrder        int            `db:"display_order"`
	HTTPURL             sql.NullString `db:"http_url"`
	HTTPExpectedStatus  sql.NullInt64  `db:"http_expected_status"`
	PingHost            sql.NullString `db:"ping_host"`
	PingCount           sql.NullInt64  `db:"ping_count"`
	PingTimeout         sql.NullInt64  `db:"ping_timeout"`
	TCPHost             sql.NullString `db:"tcp_host"`
	TCPPort             sql.NullInt64  `db:"tcp_port"`
	TCPTimeout          sql.NullInt64  `db:"tcp_timeout"`
}

func (r nodeRow) toNode() (model.Node, error) {
	n := model.Node{
		ID:                  r.ID,
		Name:                r.Name,
		Status:              model.ParseNodeStatus(r.Status),
		MonitoringIntervalS: r.MonitoringInterval,
		RetryIntervalS:      r.RetryInterval,
		MaxCheckAttempts:    r.MaxCheckAttempts,
		ConsecutiveFailures: r.ConsecutiveFailures,
		DisplayOrder:        r.DisplayOrder,
	}

	if r.LastCheck.Valid {
		t, err := parseTime(r.LastCheck.String)
		if err != nil {
			return model.Node{}, fmt.Errorf("store: parse last_check: %w", err)
		}
		n.LastCheckAt = &t
	}
	if r.ResponseTime.Valid {
		v := int(r.ResponseTime.Int64)
		n.LastResponseTimeMs = &v
	}
	if r.CredentialID.Valid {
		v := r.CredentialID.String
		n.CredentialID = &v
	}

	switch r.MonitorType {
	case "http":
		n.Detail = model.ProbeDetail{Kind: model.KindHTTP, HTTP: &model.HTTPDetail{
			URL:            r.HTTPURL.String,
			ExpectedStatus: int(r.HTTPExpectedStatus.Int64),
		}}
	case "ping":
		n.Detail = model.ProbeDetail{Kind: model.KindPing, Ping: &model.PingDetail{
			Host:    r.PingHost.String,
			Count:   int(r.PingCount.Int64),
			Timeout: int(r.PingTimeout.Int64),
		}}
	case "tcp":
		n.Detail = model.ProbeDetail{Kind: model.KindTCP, TCP: &model.TCPDetail{
			Host:    r.TCPHost.String,
			Port:    int(r.TCPPort.Int64),
			Timeout: int(r.TCPTimeout.Int64),
		}}
	default:
		return model.Node{}, fmt.Errorf("store: unknown monitor_type %q", r.MonitorType)
	}

	return n, nil
}

func monitorTypeColumn(kind model.ProbeKind) string {
	switch kind {
	case model.KindHTTP:
		return "http"
	case model.KindPing:
		return "ping"
	case model.KindTCP:
		return "tcp"
	default:
		return ""
	}
}

type nodeParams struct {
	ID                  int64          `db:"id"`
	Name                string         `db:"name"`
	MonitorType         string         `db:"monitor_type"`
	Status              string         `db:"status"`
	LastCheck           sql.NullString `db:"last_check"`
	ResponseTime        sql.NullInt64  `db:"response_time"`
	MonitoringInterval  int            `db:"monitoring_interval"`
	RetryInterval       int            `db:"retry_interval"`
	MaxCheckAttempts    int            `db:"max_check_attempts"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
	CredentialID        sql.NullString `db:"credential_id"`
	DisplayOrder        int            `db:"display_order"`
	HTTPURL             sql.NullString `db:"http_url"`
	HTTPExpectedStatus  sql.NullInt64  `db:"http_expected_status"`
	PingHost            sql.NullString `db:"ping_host"`
	PingCount           sql.NullInt64  `db:"ping_count"`
	PingTimeout         sql.NullInt64  `db:"ping_timeout"`
	TCPHost             sql.NullString `db:"tcp_host"`
	TCPPort             sql.NullInt64  `db:"tcp_port"`
	TCPTimeout          sql.NullInt64  `db:"tcp_timeout"`
}

func toNodeParams(n *model.Node) (nodeParams, error) {
	p := nodeParams{
		ID:                  n.ID,
		Name:                n.Name,
		MonitorType:         monitorTypeColumn(n.Detail.Kind),
		Status:              string(n.Status),
		MonitoringInterval:  n.MonitoringIntervalS,
		RetryInterval:       n.RetryIntervalS,
		MaxCheckAttempts:    n.MaxCheckAttempts,
		ConsecutiveFailures: n.ConsecutiveFailures,
		DisplayOrder:        n.DisplayOrder,
	}
	if p.MonitorType == "" {
		return nodeParams{}, fmt.Errorf("store: node %q has unrecognized probe kind %q", n.Name, n.Detail.Kind)
	}
	if n.LastCheckAt != nil {
		p.LastCheck = sql.NullString{String: formatTime(*n.LastCheckAt), Valid: true}
	}
	if n.LastResponseTimeMs != nil {
		p.ResponseTime = sql.NullInt64{Int64: int64(*n.LastResponseTimeMs), Valid: true}
	}
	if n.CredentialID != nil {
		p.CredentialID = sql.NullString{String: *n.CredentialID, Valid: true}
	}

	switch n.Detail.Kind {
	case model.KindHTTP:
		p.HTTPURL = sql.NullString{String: n.Detail.HTTP.URL, Valid: true}
		p.HTTPExpectedStatus = sql.NullInt64{Int64: int64(n.Detail.HTTP.ExpectedStatus), Valid: true}
	case model.KindPing:
		p.PingHost = sql.NullString{String: n.Detail.Ping.Host, Valid: true}
		p.PingCount = sql.NullInt64{Int64: int64(n.Detail.Ping.Count), Valid: true}
		p.PingTimeout = sql.NullInt64{Int64: int64(n.Detail.Ping.Timeout), Valid: true}
	case model.KindTCP:
		p.TCPHost = sql.NullString{String: n.Detail.TCP.Host, Valid: true}
		p.TCPPort = sql.NullInt64{Int64: int64(n.Detail.TCP.Port), Valid: true}
		p.TCPTimeout = sql.NullInt64{Int64: int64(n.Detail.TCP.Timeout), Valid: true}
	}
	return p, nil
}

// NodeRepo provides CRUD and listing for nodes.
type NodeRepo struct {
	db *DB
}

// Add inserts a node and returns its assigned id.
func (r *NodeRepo) Add(n *model.Node) (int64, error) {
	p, err := toNodeParams(n)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO nodes (
			name, monitor_type, status, last_check, response_time,
			monitoring_interval, retry_interval, max_check_attempts, consecutive_failures,
			credential_id, display_order,
			http_url, http_expected_status, ping_host, ping_count, ping_timeout,
			tcp_host, tcp_port, tcp_timeout
		) VALUES (
			:name, :monitor_type, :status, :last_check, :response_time,
			:monitoring_interval, :retry_interval, :max_check_attempts, :consecutive_failures,
			:credential_id, :display_order,
			:http_url, :http_expected_status, :ping_host, :ping_count, :ping_timeout,
			:tcp_host, :tcp_port, :tcp_timeout
		)`

	result, err := r.db.NamedExec(query, p)
	if err != nil {
		return 0, fmt.Errorf("store: add_node: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: add_node: last insert id: %w", err)
	}
	return id, nil
}

// Update overwrites every column for an existing node.
func (r *NodeRepo) Update(n *model.Node) error {
	p, err := toNodeParams(n)
	if err != nil {
		return err
	}

	query := `
		UPDATE nodes SET
			name = :name, monitor_type = :monitor_type, status = :status,
			last_check = :last_check, response_time = :response_time,
			monitoring_interval = :monitoring_interval, retry_interval = :retry_interval,
			max_check_attempts = :max_check_attempts, consecutive_failures = :consecutive_failures,
			credential_id = :credential_id, display_order = :display_order,
			http_url = :http_url, http_expected_status = :http_expected_status,
			ping_host = :ping_host, ping_count = :ping_count, ping_timeout = :ping_timeout,
			tcp_host = :tcp_host, tcp_port = :tcp_port, tcp_timeout = :tcp_timeout
		WHERE id = :id`

	if _, err := r.db.NamedExec(query, p); err != nil {
		return fmt.Errorf("store: update_node(%d): %w", n.ID, err)
	}
	return nil
}

// Delete removes a node; probe_samples and status_changes cascade.
func (r *NodeRepo) Delete(id int64) error {
	if _, err := r.db.Exec("DELETE FROM nodes WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: delete_node(%d): %w", id, err)
	}
	return nil
}

// Get fetches a single node by id.
func (r *NodeRepo) Get(id int64) (model.Node, error) {
	var row nodeRow
	if err := r.db.Get(&row, "SELECT * FROM nodes WHERE id = ?", id); err != nil {
		return model.Node{}, fmt.Errorf("store: get node(%d): %w", id, err)
	}
	return row.toNode()
}

// List returns every node ordered by display_order, falling back to id
// when display_order is the unset zero value, then by name.
func (r *NodeRepo) List() ([]model.Node, error) {
	var rows []nodeRow
	query := `
		SELECT * FROM nodes
		ORDER BY CASE WHEN display_order = 0 THEN id ELSE display_order END ASC, name ASC`
	if err := r.db.Select(&rows, query); err != nil {
		return nil, fmt.Errorf("store: list_nodes: %w", err)
	}

	nodes := make([]model.Node, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNode()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// DisplayOrderUpdate pairs a node id with its new display_order.
type DisplayOrderUpdate struct {
	ID    int64
	Order int
}

// UpdateDisplayOrders applies every pair atomically in a single
// transaction.
func (r *NodeRepo) UpdateDisplayOrders(updates []DisplayOrderUpdate) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("store: update_display_orders: begin: %w", err)
	}

	for _, u := range updates {
		if _, err := tx.Exec("UPDATE nodes SET display_order = ? WHERE id = ?", u.Order, u.ID); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: update_display_orders(%d): %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: update_display_orders: commit: %w", err)
	}
	return nil
}
