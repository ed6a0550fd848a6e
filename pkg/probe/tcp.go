package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

type tcpAdapter struct {
	detail model.TCPDetail
}

// Probe attempts a TCP connection to detail.Host:detail.Port, closing
// immediately on success.
func (a *tcpAdapter) Probe(ctx context.Context) Outcome {
	return timed(func() (bool, string) {
		addr := net.JoinHostPort(a.detail.Host, strconv.Itoa(a.detail.Port))
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false, fmt.Sprintf("tcp connect failed: %v", err)
		}
		conn.Close()
		return true, ""
	})
}
