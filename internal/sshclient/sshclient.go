// Package sshclient is the single SSH primitive shared by discovery,
// fingerprint, and collection (§5). It wraps golang.org/x/crypto/ssh behind
// a small Dialer/Session interface so every caller gets the same prompt-
// counting, timeout, and cancellation semantics, and so tests never dial a
// real socket (see FakeDialer).
package sshclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"
)

// Credentials authenticates an SSH session, by password or by key.
type Credentials struct {
	Username   string
	Password   string
	PrivateKey []byte // PEM-encoded, optional
}

// Config controls how a Session is dialed and driven.
type Config struct {
	ConnectTimeout time.Duration // default 10s, §5
	CommandTimeout time.Duration // default 15s, §5
	PromptRegexp   *regexp.Regexp
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 15 * time.Second
	}
	if c.PromptRegexp == nil {
		c.PromptRegexp = regexp.MustCompile(`[\w.\-]+[>#]\s*$`)
	}
	return c
}

// Session is one live SSH connection to a device.
type Session interface {
	// RunUntilPrompt writes cmd (followed by a newline) and reads until the
	// configured prompt regexp has matched promptCount times or the
	// per-command timeout elapses (§4.3 "prompt counting"). It returns
	// whatever was read even on timeout, since a partial capture is still
	// useful (§7 "capture file may still contain partial output").
	RunUntilPrompt(ctx context.Context, cmd string, promptCount int) (string, error)
	Close() error
}

// Dialer opens Sessions. Production code uses SSHDialer; tests use FakeDialer.
type Dialer interface {
	Dial(ctx context.Context, addr string, creds Credentials, cfg Config) (Session, error)
}

// ErrTimeout is returned by RunUntilPrompt when the prompt count was not
// reached before the per-command timeout elapsed.
var ErrTimeout = fmt.Errorf("sshclient: command timed out waiting for prompt")

// SSHDialer dials real devices via golang.org/x/crypto/ssh.
type SSHDialer struct{}

func (SSHDialer) Dial(ctx context.Context, addr string, creds Credentials, cfg Config) (Session, error) {
	cfg = cfg.withDefaults()

	auths := []ssh.AuthMethod{}
	if creds.Password != "" {
		auths = append(auths, ssh.Password(creds.Password))
	}
	if len(creds.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(creds.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if len(auths) == 0 {
		return nil, fmt.Errorf("no credentials supplied")
	}

	clientCfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // network devices rarely present verifiable host keys
		Timeout:         cfg.ConnectTimeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sess, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("new session %s: %w", addr, err)
	}

	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	// Most network OSes behave like an interactive terminal; request a PTY.
	if err := sess.RequestPty("vt100", 0, 200, ssh.TerminalModes{}); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		client.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	return &liveSession{
		client:  client,
		session: sess,
		stdin:   stdin,
		stdout:  stdout,
		prompt:  cfg.PromptRegexp,
		timeout: cfg.CommandTimeout,
	}, nil
}

type liveSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	prompt  *regexp.Regexp
	timeout time.Duration
}

func (s *liveSession) RunUntilPrompt(ctx context.Context, cmd string, promptCount int) (string, error) {
	if _, err := io.WriteString(s.stdin, cmd+"\n"); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}

	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	deadline := time.Now().Add(s.timeout)

	for {
		select {
		case <-ctx.Done():
			return buf.String(), ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			return buf.String(), ErrTimeout
		}

		n, err := s.stdout.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if len(s.prompt.FindAllIndex(buf.Bytes(), -1)) >= promptCount {
				return buf.String(), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return buf.String(), nil
			}
			return buf.String(), fmt.Errorf("read output: %w", err)
		}
	}
}

func (s *liveSession) Close() error {
	s.session.Close()
	return s.client.Close()
}
