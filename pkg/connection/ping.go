package connection

import "github.com/last-emo-boy/net-monitor/pkg/model"

// pingStrategy connects to ping-monitored nodes over SSH, since ping
// targets are typically network devices reachable that way, not over
// HTTP.
type pingStrategy struct {
	ssh *sshStrategy
}

func newPingStrategy() *pingStrategy { return &pingStrategy{ssh: newSSHStrategy()} }

func (*pingStrategy) Description() string { return "Connect via SSH (default for ping targets)" }

func (p *pingStrategy) Connect(target string) error {
	return p.ssh.Connect(target)
}

func (p *pingStrategy) ConnectWithCredential(target string, secret model.Secret) error {
	return p.ssh.ConnectWithCredential(target, secret)
}

func (p *pingStrategy) TestConnection(target string, secret *model.Secret) (bool, error) {
	return p.ssh.TestConnection(target, secret)
}
