package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

type pingAdapter struct {
	detail model.PingDetail
}

// Probe parses detail.Host as a literal IP address (hostname
// resolution is not a probe responsibility) and sends a single ICMP
// echo, waiting up to detail.Timeout seconds for a reply. The count
// field is accepted but at most one echo is ever sent per call.
func (a *pingAdapter) Probe(ctx context.Context) Outcome {
	return timed(func() (bool, string) {
		ip := net.ParseIP(a.detail.Host)
		if ip == nil || ip.To4() == nil {
			return false, "Invalid IP address"
		}

		timeout := time.Duration(a.detail.Timeout) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining < timeout {
				timeout = remaining
			}
		}

		return sendEchoOnce(ip, timeout)
	})
}

func sendEchoOnce(ip net.IP, timeout time.Duration) (bool, string) {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		return false, fmt.Sprintf("unprivileged icmp socket unavailable: %v", err)
	}
	defer conn.Close()

	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  1,
			Data: []byte("net-monitor-ping"),
		},
	}

	wb, err := msg.Marshal(nil)
	if err != nil {
		return false, fmt.Sprintf("encode icmp echo: %v", err)
	}

	if _, err := conn.WriteTo(wb, &net.UDPAddr{IP: ip}); err != nil {
		return false, fmt.Sprintf("send icmp echo: %v", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, fmt.Sprintf("set read deadline: %v", err)
	}

	rb := make([]byte, 1500)
	n, _, err := conn.ReadFrom(rb)
	if err != nil {
		return false, fmt.Sprintf("no reply: %v", err)
	}

	reply, err := icmp.ParseMessage(1, rb[:n])
	if err != nil {
		return false, fmt.Sprintf("parse icmp reply: %v", err)
	}
	switch reply.Type {
	case ipv4.ICMPTypeEchoReply:
		return true, ""
	default:
		return false, fmt.Sprintf("unexpected icmp reply type: %v", reply.Type)
	}
}
