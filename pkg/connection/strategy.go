// Package connection implements the interactive connection strategies a
// UI or CLI front-end uses to jump from a monitored node to a live
// session with it (open a browser tab, spawn an SSH terminal, or just
// confirm raw reachability). It is a collaborator contract consumed by
// callers outside the monitoring loop: the engine never calls it, the
// engine only ever calls probe adapters.
package connection

import (
	"fmt"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

// Type selects which strategy a factory call builds.
type Type string

const (
	TypeHTTP Type = "Http"
	TypeSSH  Type = "Ssh"
	TypePing Type = "Ping"
	TypeTCP  Type = "Tcp"
)

// Strategy opens an interactive connection to target using whatever
// mechanism is appropriate for the strategy's kind.
type Strategy interface {
	Connect(target string) error
	Description() string
}

// AuthenticatedStrategy extends Strategy for kinds that can use stored
// credentials and can be probed for reachability without fully
// connecting.
type AuthenticatedStrategy interface {
	Strategy
	ConnectWithCredential(target string, secret model.Secret) error
	TestConnection(target string, secret *model.Secret) (bool, error)
}

// New builds the plain Strategy for a connection type.
func New(t Type) (Strategy, error) {
	switch t {
	case TypeHTTP:
		return &httpStrategy{}, nil
	case TypeSSH:
		return newSSHStrategy(), nil
	case TypePing:
		return newPingStrategy(), nil
	case TypeTCP:
		return &tcpStrategy{}, nil
	default:
		return nil, fmt.Errorf("connection: unknown type %q", t)
	}
}

// NewAuthenticated builds the AuthenticatedStrategy for a connection
// type. Http and Tcp have no credential-bearing session to authenticate,
// so they are rejected here rather than silently ignoring credentials.
func NewAuthenticated(t Type) (AuthenticatedStrategy, error) {
	switch t {
	case TypeSSH:
		return newSSHStrategy(), nil
	case TypePing:
		return newPingStrategy(), nil
	default:
		return nil, fmt.Errorf("connection: %q has no authenticated strategy", t)
	}
}

// Context binds a single strategy so callers needn't re-resolve it on
// every connect.
type Context struct {
	strategy Strategy
}

func NewContext(strategy Strategy) *Context { return &Context{strategy: strategy} }

func (c *Context) Connect(target string) error { return c.strategy.Connect(target) }
func (c *Context) Description() string         { return c.strategy.Description() }
