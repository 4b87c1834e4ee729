package sshclient

import (
	"context"
	"errors"
	"testing"
)

func TestFakeDialerReturnsScriptedSession(t *testing.T) {
	dialer := NewFakeDialer()
	sess := NewFakeSession()
	sess.Responses["show version"] = "Cisco IOS Software, C3750\nswitch#"
	dialer.Sessions["10.0.0.1:22"] = sess

	got, err := dialer.Dial(context.Background(), "10.0.0.1:22", Credentials{Username: "admin", Password: "x"}, Config{})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}

	out, err := got.RunUntilPrompt(context.Background(), "show version", 1)
	if err != nil {
		t.Fatalf("RunUntilPrompt() error = %v", err)
	}
	if out != sess.Responses["show version"] {
		t.Errorf("RunUntilPrompt() = %q, want %q", out, sess.Responses["show version"])
	}
	if len(sess.History) != 1 || sess.History[0] != "show version" {
		t.Errorf("History = %v, want [show version]", sess.History)
	}
}

func TestFakeDialerMissingSessionErrors(t *testing.T) {
	dialer := NewFakeDialer()
	if _, err := dialer.Dial(context.Background(), "10.0.0.9:22", Credentials{}, Config{}); err == nil {
		t.Error("Dial() on unscripted addr want error, got nil")
	}
}

func TestFakeDialerHonorsDialErr(t *testing.T) {
	dialer := NewFakeDialer()
	wantErr := errors.New("connection refused")
	dialer.DialErr["10.0.0.2:22"] = wantErr

	_, err := dialer.Dial(context.Background(), "10.0.0.2:22", Credentials{}, Config{})
	if !errors.Is(err, wantErr) {
		t.Errorf("Dial() error = %v, want %v", err, wantErr)
	}
}

func TestFakeSessionUnscriptedCommandErrors(t *testing.T) {
	sess := NewFakeSession()
	if _, err := sess.RunUntilPrompt(context.Background(), "show running-config", 1); err == nil {
		t.Error("RunUntilPrompt() on unscripted command want error, got nil")
	}
}

func TestFakeSessionClose(t *testing.T) {
	sess := NewFakeSession()
	if err := sess.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !sess.Closed {
		t.Error("Closed = false, want true")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.ConnectTimeout <= 0 {
		t.Error("ConnectTimeout default not set")
	}
	if cfg.CommandTimeout <= 0 {
		t.Error("CommandTimeout default not set")
	}
	if cfg.PromptRegexp == nil {
		t.Error("PromptRegexp default not set")
	}
	if !cfg.PromptRegexp.MatchString("switch1#") {
		t.Error("default PromptRegexp does not match a typical enable prompt")
	}
}
