package engine

import "github.com/last-emo-boy/net-monitor/pkg/model"

// ConfigUpdateKind discriminates the three mutations a front-end
// collaborator may push onto the engine's command channel.
type ConfigUpdateKind string

const (
	ConfigUpdateAdd    ConfigUpdateKind = "add"
	ConfigUpdateModify ConfigUpdateKind = "update"
	ConfigUpdateDelete ConfigUpdateKind = "delete"
)

// ConfigUpdate is a single command accepted by the engine's inbound
// channel. Exactly one of Node/ID is meaningful, depending on Kind.
type ConfigUpdate struct {
	Kind ConfigUpdateKind
	Node model.Node
	ID   int64
}

// AddNode builds a command that inserts a new node into the working set.
func AddNode(n model.Node) ConfigUpdate {
	return ConfigUpdate{Kind: ConfigUpdateAdd, Node: n}
}

// UpdateNode builds a command that merges config fields into an existing
// working-set entry, preserving its runtime fields.
func UpdateNode(n model.Node) ConfigUpdate {
	return ConfigUpdate{Kind: ConfigUpdateModify, Node: n}
}

// DeleteNode builds a command that removes a node from the working set.
func DeleteNode(id int64) ConfigUpdate {
	return ConfigUpdate{Kind: ConfigUpdateDelete, ID: id}
}
