package connection

import (
	"fmt"
	"net"
	"time"
)

// tcpStrategy has no interactive session to hand off to: raw TCP has no
// universal client the way SSH has a terminal, so Connect just confirms
// the port accepts a connection and reports failure otherwise.
type tcpStrategy struct{}

func (tcpStrategy) Description() string { return "Test raw TCP connectivity" }

func (tcpStrategy) Connect(target string) error {
	conn, err := net.DialTimeout("tcp", target, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connection: tcp connect to %s: %w", target, err)
	}
	return conn.Close()
}
