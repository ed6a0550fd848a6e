// Package importexport converts between the persisted node set and the
// JSON array interchange format used to move node configuration between
// installations.
package importexport

import (
	"encoding/json"
	"fmt"

	"github.com/last-emo-boy/net-monitor/pkg/model"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

// Export renders every node's config fields as a JSON array of
// NodeImport objects, in the order nodes were given.
func Export(nodes []model.Node) ([]byte, error) {
	out := make([]model.NodeImport, 0, len(nodes))
	for _, n := range nodes {
		maxAttempts := n.MaxCheckAttempts
		retry := n.RetryIntervalS
		out = append(out, model.NodeImport{
			Name:               n.Name,
			Detail:             n.Detail,
			MonitoringInterval: n.MonitoringIntervalS,
			CredentialID:       n.CredentialID,
			MaxCheckAttempts:   &maxAttempts,
			RetryInterval:      &retry,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("importexport: encode nodes: %w", err)
	}
	return data, nil
}

// Decode parses the JSON array interchange format without touching the
// store, applying max_check_attempts/retry_interval defaults where
// absent.
func Decode(data []byte) ([]model.Node, error) {
	var imports []model.NodeImport
	if err := json.Unmarshal(data, &imports); err != nil {
		return nil, fmt.Errorf("importexport: decode nodes: %w", err)
	}

	nodes := make([]model.Node, 0, len(imports))
	for _, imp := range imports {
		maxAttempts, retry := imp.ApplyDefaults()
		nodes = append(nodes, model.Node{
			Name:                imp.Name,
			Detail:              imp.Detail,
			Status:              model.StatusOffline,
			MonitoringIntervalS: imp.MonitoringInterval,
			RetryIntervalS:      retry,
			MaxCheckAttempts:    maxAttempts,
			CredentialID:        imp.CredentialID,
		})
	}
	return nodes, nil
}

// Import decodes data and inserts every node through repo, returning
// the assigned ids in the same order as the input array.
func Import(repo *store.NodeRepo, data []byte) ([]int64, error) {
	nodes, err := Decode(data)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(nodes))
	for i := range nodes {
		id, err := repo.Add(&nodes[i])
		if err != nil {
			return ids, fmt.Errorf("importexport: add node %q: %w", nodes[i].Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
