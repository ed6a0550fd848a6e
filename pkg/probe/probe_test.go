package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/last-emo-boy/net-monitor/pkg/model"
)

func TestHTTPAdapterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := New(model.ProbeDetail{Kind: model.KindHTTP, HTTP: &model.HTTPDetail{URL: srv.URL, ExpectedStatus: 200}})
	out := a.Probe(context.Background())
	if !out.OK {
		t.Fatalf("expected success, got detail %q", out.Detail)
	}
}

func TestHTTPAdapterUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(model.ProbeDetail{Kind: model.KindHTTP, HTTP: &model.HTTPDetail{URL: srv.URL, ExpectedStatus: 200}})
	out := a.Probe(context.Background())
	if out.OK {
		t.Fatal("expected failure on status mismatch")
	}
}

func TestHTTPAdapterConnectionRefused(t *testing.T) {
	a := New(model.ProbeDetail{Kind: model.KindHTTP, HTTP: &model.HTTPDetail{URL: "http://127.0.0.1:1", ExpectedStatus: 200}})
	out := a.Probe(context.Background())
	if out.OK {
		t.Fatal("expected failure connecting to closed port")
	}
}

func TestTCPAdapterSuccess(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	a := New(model.ProbeDetail{Kind: model.KindTCP, TCP: &model.TCPDetail{Host: host, Port: port, Timeout: 2}})
	out := a.Probe(context.Background())
	if !out.OK {
		t.Fatalf("expected success, got detail %q", out.Detail)
	}
}

func TestTCPAdapterRefused(t *testing.T) {
	a := New(model.ProbeDetail{Kind: model.KindTCP, TCP: &model.TCPDetail{Host: "127.0.0.1", Port: 1, Timeout: 1}})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out := a.Probe(ctx)
	if out.OK {
		t.Fatal("expected failure connecting to closed port")
	}
}

func TestPingAdapterInvalidIP(t *testing.T) {
	a := New(model.ProbeDetail{Kind: model.KindPing, Ping: &model.PingDetail{Host: "not-an-ip", Count: 1, Timeout: 2}})
	out := a.Probe(context.Background())
	if out.OK {
		t.Fatal("expected failure for non-literal host")
	}
	if out.Detail != "Invalid IP address" {
		t.Fatalf("expected 'Invalid IP address', got %q", out.Detail)
	}
}

func TestPingAdapterLoopback(t *testing.T) {
	// Unprivileged ICMP sockets may be unavailable in the sandbox this
	// runs in; tolerate either outcome, but a loopback literal must never
	// be rejected as an invalid address.
	a := New(model.ProbeDetail{Kind: model.KindPing, Ping: &model.PingDetail{Host: "127.0.0.1", Count: 1, Timeout: 2}})
	out := a.Probe(context.Background())
	if !out.OK && out.Detail == "Invalid IP address" {
		t.Fatal("loopback literal must not be reported as an invalid address")
	}
}

func TestUnsupportedProbeKind(t *testing.T) {
	a := New(model.ProbeDetail{Kind: model.ProbeKind("bogus")})
	out := a.Probe(context.Background())
	if out.OK {
		t.Fatal("expected failure for unsupported kind")
	}
}
