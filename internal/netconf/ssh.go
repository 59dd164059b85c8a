package netconf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
)

var _ Provider = (*SSHProvider)(nil)

// SSHProvider opens NETCONF sessions over the SSH netconf subsystem.
type SSHProvider struct {
	port    int
	timeout time.Duration
}

// NewSSHProvider creates a provider dialing the given port with the given
// per-connection timeout.
func NewSSHProvider(port int, timeout time.Duration) *SSHProvider {
	if port == 0 {
		port = DefaultPort
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SSHProvider{port: port, timeout: timeout}
}

// Connect dials the device, requests the netconf subsystem and performs the
// hello exchange.
func (p *SSHProvider) Connect(ctx context.Context, host, username, password string) (Session, error) {
	config := &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         p.timeout,
	}

	addr := fmt.Sprintf("%s:%d", host, p.port)

	dialer := &net.Dialer{
		Timeout: p.timeout,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}

	if err := sess.RequestSubsystem("netconf"); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("failed to request netconf subsystem: %w", err)
	}

	s := &sshSession{
		client:  client,
		sess:    sess,
		stdin:   stdin,
		reader:  bufio.NewReader(stdout),
		timeout: p.timeout,
	}

	if err := s.hello(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type sshSession struct {
	client  *ssh.Client
	sess    *ssh.Session
	stdin   io.WriteCloser
	reader  *bufio.Reader
	timeout time.Duration
	msgID   uint64
}

// hello sends our capabilities and consumes the device's hello.
func (s *sshSession) hello(ctx context.Context) error {
	return s.exchange(ctx, helloMessage(), func(reply string) error {
		if reply == "" {
			return fmt.Errorf("empty hello from device")
		}
		return nil
	})
}

func (s *sshSession) GetConfig(ctx context.Context, filter string) (string, error) {
	s.msgID++
	request, err := getConfigRequest(s.msgID, filter)
	if err != nil {
		return "", err
	}

	var config string
	err = s.exchange(ctx, request, func(reply string) error {
		config, err = parseGetConfigReply(reply)
		return err
	})
	return config, err
}

// exchange writes one framed message and hands the framed reply to handle.
// The operation is bounded by both the context and the session timeout.
func (s *sshSession) exchange(ctx context.Context, msg string, handle func(reply string) error) error {
	done := make(chan error, 1)
	go func() {
		if err := writeMessage(s.stdin, msg); err != nil {
			done <- err
			return
		}
		reply, err := readMessage(s.reader)
		if err != nil {
			done <- err
			return
		}
		done <- handle(reply)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.timeout):
		return fmt.Errorf("rpc timeout")
	}
}

func (s *sshSession) Close() error {
	s.sess.Close()
	return s.client.Close()
}
