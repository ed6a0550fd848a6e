package connection

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

const defaultSSHPort = 22

// sshStrategy opens an SSH session in a new terminal window.
type sshStrategy struct{}

func newSSHStrategy() *sshStrategy { return &sshStrategy{} }

func (*sshStrategy) Description() string { return "Open SSH connection in terminal" }

func (s *sshStrategy) Connect(target string) error {
	return s.ConnectWithCredential(target, model.Secret{Kind: model.SecretDefault})
}

func (s *sshStrategy) ConnectWithCredential(target string, secret model.Secret) error {
	host, port := parseSSHTarget(target)
	cmd := strings.Join(buildSSHCommand(host, port, secret), " ")
	if err := spawnTerminal(cmd); err != nil {
		return fmt.Errorf("connection: open ssh terminal for %s: %w", target, err)
	}
	return nil
}

func (*sshStrategy) TestConnection(target string, _ *model.Secret) (bool, error) {
	host, port := parseSSHTarget(target)
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(port)), 5*time.Second)
	if err != nil {
		return false, nil
	}
	conn.Close()
	return true, nil
}

// parseSSHTarget splits "host:port" (or "[ipv6]:port") into its parts,
// defaulting to 22 when there is no trailing ":<port>" or it doesn't
// parse as one. A bare IPv6 literal such as "fe80::1" is kept whole.
func parseSSHTarget(target string) (string, int) {
	if host, portStr, err := net.SplitHostPort(target); err == nil {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port <= 65535 {
			return host, port
		}
	}
	return target, defaultSSHPort
}

// buildSSHCommand assembles an `ssh` command line for the given secret
// kind. KeyData (embedded key material) has no materialized file to
// point -i at here: the caller is responsible for writing the key to a
// temp file and passing a KeyFile secret instead, so it falls back to
// default SSH behavior with just the username.
func buildSSHCommand(host string, port int, secret model.Secret) []string {
	cmd := []string{"ssh"}
	if port != defaultSSHPort {
		cmd = append(cmd, "-p", strconv.Itoa(port))
	}

	switch secret.Kind {
	case model.SecretKeyFile:
		cmd = append(cmd, "-i", secret.KeyPath, fmt.Sprintf("%s@%s", secret.Username, host))
	case model.SecretPassword, model.SecretKeyData:
		cmd = append(cmd, fmt.Sprintf("%s@%s", secret.Username, host))
	default:
		cmd = append(cmd, host)
	}
	return cmd
}
