package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/last-emo-boy/net-monitor/pkg/config"
	"github.com/last-emo-boy/net-monitor/pkg/credential"
	"github.com/last-emo-boy/net-monitor/pkg/engine"
	"github.com/last-emo-boy/net-monitor/pkg/events"
	"github.com/last-emo-boy/net-monitor/pkg/metrics"
	"github.com/last-emo-boy/net-monitor/pkg/model"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

// newTestServer wires a Server against an in-memory store and a
// temp-file credential store, with a buffered command channel so tests
// can observe what the handlers dispatch to the engine.
func newTestServer(t *testing.T) (*Server, *store.DB, chan engine.ConfigUpdate) {
	db, err := store.Open(&config.StoreConfig{Path: ":memory:", WALMode: true, MaxOpenConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	credPath := filepath.Join(t.TempDir(), "credentials.enc")
	creds, err := credential.Open(credPath, "test-master-password")
	require.NoError(t, err)

	commands := make(chan engine.ConfigUpdate, 16)

	s := New(Config{
		Nodes:       db.NodeRepo(),
		Samples:     db.SampleRepo(),
		Changes:     db.StatusChangeRepo(),
		Credentials: creds,
		Commands:    commands,
		Hub:         events.NewHub(),
		Metrics:     metrics.New(prometheus.NewRegistry()),
	})
	return s, db, commands
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sampleNodeImport(name string) model.NodeImport {
	return model.NodeImport{
		Name:               name,
		Detail:             model.ProbeDetail{Kind: model.KindTCP, TCP: &model.TCPDetail{Host: "10.0.0.1", Port: 443, Timeout: 5}},
		MonitoringInterval: 30,
	}
}

func TestCreateNodePersistsAndDispatchesAdd(t *testing.T) {
	s, db, commands := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("bastion"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created nodeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "bastion", created.Name)
	assert.Equal(t, model.StatusOffline, created.Status)

	stored, err := db.NodeRepo().Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bastion", stored.Name)

	select {
	case cmd := <-commands:
		assert.Equal(t, engine.ConfigUpdateAdd, cmd.Kind)
		assert.Equal(t, created.ID, cmd.Node.ID)
	default:
		t.Fatal("expected a dispatched add command")
	}
}

func TestListNodesReturnsCreatedNode(t *testing.T) {
	s, _, _ := newTestServer(t)
	doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("edge-router"))

	rec := doRequest(s, http.MethodGet, "/api/v1/nodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var nodes []nodeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "edge-router", nodes[0].Name)
}

func TestGetNodeNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/api/v1/nodes/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateNodePersistsAndDispatchesUpdate(t *testing.T) {
	s, _, commands := newTestServer(t)
	created := doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("bastion"))
	var node nodeDTO
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &node))
	<-commands // drain the add command

	update := sampleNodeImport("bastion-renamed")
	rec := doRequest(s, http.MethodPut, "/api/v1/nodes/"+strconv.FormatInt(node.ID, 10), update)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated nodeDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "bastion-renamed", updated.Name)

	select {
	case cmd := <-commands:
		assert.Equal(t, engine.ConfigUpdateModify, cmd.Kind)
	default:
		t.Fatal("expected a dispatched update command")
	}
}

func TestDeleteNodeDispatchesDelete(t *testing.T) {
	s, db, commands := newTestServer(t)
	created := doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("bastion"))
	var node nodeDTO
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &node))
	<-commands

	rec := doRequest(s, http.MethodDelete, "/api/v1/nodes/"+strconv.FormatInt(node.ID, 10), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := db.NodeRepo().Get(node.ID)
	assert.Error(t, err)

	select {
	case cmd := <-commands:
		assert.Equal(t, engine.ConfigUpdateDelete, cmd.Kind)
		assert.Equal(t, node.ID, cmd.ID)
	default:
		t.Fatal("expected a dispatched delete command")
	}
}

func TestReorderNodesPersistsOrder(t *testing.T) {
	s, db, commands := newTestServer(t)
	a := doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("a"))
	b := doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("b"))
	<-commands
	<-commands

	var nodeA, nodeB nodeDTO
	require.NoError(t, json.Unmarshal(a.Body.Bytes(), &nodeA))
	require.NoError(t, json.Unmarshal(b.Body.Bytes(), &nodeB))

	reorder := []reorderEntry{
		{ID: nodeB.ID, Order: 0},
		{ID: nodeA.ID, Order: 1},
	}
	rec := doRequest(s, http.MethodPut, "/api/v1/nodes/reorder", reorder)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := db.NodeRepo().Get(nodeB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.DisplayOrder)
}

func TestCredentialCRUD(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := credentialRequest{
		Name: "prod-key",
		Secret: secretRequestDTO{
			Type:     model.SecretKeyFile,
			Username: "deploy",
			KeyPath:  "/home/deploy/.ssh/id_ed25519",
		},
	}
	rec := doRequest(s, http.MethodPost, "/api/v1/credentials", req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	listRec := doRequest(s, http.MethodGet, "/api/v1/credentials", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	var summaries []credentialSummaryDTO
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "prod-key", summaries[0].Name)

	req.Name = "prod-key-renamed"
	updRec := doRequest(s, http.MethodPut, "/api/v1/credentials/"+created.ID, req)
	assert.Equal(t, http.StatusNoContent, updRec.Code)

	delRec := doRequest(s, http.MethodDelete, "/api/v1/credentials/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	missRec := doRequest(s, http.MethodDelete, "/api/v1/credentials/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, missRec.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _, commands := newTestServer(t)
	doRequest(s, http.MethodPost, "/api/v1/nodes", sampleNodeImport("bastion"))
	<-commands

	exportRec := doRequest(s, http.MethodGet, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, exportRec.Code)

	importReq := httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(exportRec.Body.Bytes()))
	importRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(importRec, importReq)
	require.Equal(t, http.StatusCreated, importRec.Code)

	var result struct {
		IDs []int64 `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(importRec.Body.Bytes(), &result))
	require.Len(t, result.IDs, 1)

	select {
	case cmd := <-commands:
		assert.Equal(t, engine.ConfigUpdateAdd, cmd.Kind)
	default:
		t.Fatal("expected import to dispatch an add command")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "net_monitor_")
}
