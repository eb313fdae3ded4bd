package gamewatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/BJPickles/AGSCogs-sub000/internal/config"
	"github.com/BJPickles/AGSCogs-sub000/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

type fakeSession struct {
	sent     int
	edits    int
	messages []string
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.sent), ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits++
	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.messages = append(f.messages, content)
	return &discordgo.Message{ID: "announce", ChannelID: channelID}, nil
}

func testWatcher(t *testing.T, threshold int) (*Watcher, *fakeSession) {
	t.Helper()
	session := &fakeSession{}
	w := NewWatcher(session, testRepo(t), config.GamewatchConfig{
		ChannelID:        "chan-status",
		IntervalSecs:     60,
		TimeoutSecs:      1,
		FailureThreshold: threshold,
		Servers:          []config.ServerConfig{{Name: "factorio", Address: "127.0.0.1:34197"}},
	})
	return w, session
}

func TestProbeSuccess(t *testing.T) {
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

	latency, err := Probe(context.Background(), ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if latency <= 0 {
		t.Errorf("latency = %v, want > 0", latency)
	}
}

func TestProbeRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := Probe(context.Background(), addr, time.Second); err == nil {
		t.Error("expected error probing closed port")
	}
}

func TestCheckUpCreatesEmbed(t *testing.T) {
	w, session := testWatcher(t, 3)
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		return 12 * time.Millisecond, nil
	}

	if err := w.Check(context.Background(), w.servers[0]); err != nil {
		t.Fatalf("check: %v", err)
	}

	if session.sent != 1 {
		t.Errorf("sent = %d, want 1", session.sent)
	}
	if len(session.messages) != 0 {
		t.Errorf("announcements = %v, want none on first check", session.messages)
	}

	st, err := w.repo.Get("factorio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st == nil || !st.Up {
		t.Fatal("server should be recorded as up")
	}
	if st.LatencyMS == nil || *st.LatencyMS != 12 {
		t.Errorf("latency = %v, want 12", st.LatencyMS)
	}
	if st.MessageID != "msg-1" {
		t.Errorf("message_id = %q, want msg-1", st.MessageID)
	}
}

func TestCheckEditsInPlace(t *testing.T) {
	w, session := testWatcher(t, 3)
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		return 10 * time.Millisecond, nil
	}

	for i := 0; i < 3; i++ {
		if err := w.Check(context.Background(), w.servers[0]); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	if session.sent != 1 {
		t.Errorf("sent = %d, want 1", session.sent)
	}
	if session.edits != 2 {
		t.Errorf("edits = %d, want 2", session.edits)
	}
}

func TestDownAfterThreshold(t *testing.T) {
	w, session := testWatcher(t, 3)

	up := true
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		if up {
			return 10 * time.Millisecond, nil
		}
		return 0, errors.New("connection refused")
	}

	if err := w.Check(context.Background(), w.servers[0]); err != nil {
		t.Fatalf("initial check: %v", err)
	}

	up = false
	for i := 0; i < 2; i++ {
		if err := w.Check(context.Background(), w.servers[0]); err != nil {
			t.Fatalf("failing check %d: %v", i, err)
		}
		st, err := w.repo.Get("factorio")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !st.Up {
			t.Fatalf("declared down after %d failures, threshold is 3", i+1)
		}
	}
	if len(session.messages) != 0 {
		t.Errorf("announcements = %v, want none below threshold", session.messages)
	}

	if err := w.Check(context.Background(), w.servers[0]); err != nil {
		t.Fatalf("third failing check: %v", err)
	}
	st, err := w.repo.Get("factorio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.Up {
		t.Error("server should be down after 3 consecutive failures")
	}
	if st.Failures != 3 {
		t.Errorf("failures = %d, want 3", st.Failures)
	}
	if len(session.messages) != 1 || !strings.Contains(session.messages[0], "down") {
		t.Errorf("announcements = %v, want one down alert", session.messages)
	}
}

func TestRecoveryAnnouncedOnce(t *testing.T) {
	w, session := testWatcher(t, 1)

	failing := true
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		if failing {
			return 0, errors.New("timeout")
		}
		return 8 * time.Millisecond, nil
	}

	// First ever check fails; no announcement for a server that was
	// never up.
	if err := w.Check(context.Background(), w.servers[0]); err != nil {
		t.Fatalf("failing check: %v", err)
	}
	if len(session.messages) != 0 {
		t.Errorf("announcements = %v, want none", session.messages)
	}

	failing = false
	for i := 0; i < 2; i++ {
		if err := w.Check(context.Background(), w.servers[0]); err != nil {
			t.Fatalf("recovering check %d: %v", i, err)
		}
	}

	if len(session.messages) != 1 || !strings.Contains(session.messages[0], "back up") {
		t.Errorf("announcements = %v, want one recovery alert", session.messages)
	}

	st, err := w.repo.Get("factorio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !st.Up || st.Failures != 0 {
		t.Errorf("status = up:%v failures:%d, want up with reset failures", st.Up, st.Failures)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	w, _ := testWatcher(t, 3)

	calls := 0
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		calls++
		if calls == 2 || calls == 3 {
			return 0, errors.New("flaky")
		}
		return 5 * time.Millisecond, nil
	}

	for i := 0; i < 4; i++ {
		if err := w.Check(context.Background(), w.servers[0]); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	st, err := w.repo.Get("factorio")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !st.Up {
		t.Error("two failures then a success should leave the server up")
	}
	if st.Failures != 0 {
		t.Errorf("failures = %d, want 0 after success", st.Failures)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w, _ := testWatcher(t, 3)
	w.probe = func(ctx context.Context, address string, timeout time.Duration) (time.Duration, error) {
		return time.Millisecond, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestAllOrdered(t *testing.T) {
	repo := testRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	for _, name := range []string{"zomboid", "factorio"} {
		if err := repo.Record(&Status{Name: name, ChannelID: "c", Up: true, LastChecked: &now}); err != nil {
			t.Fatalf("record %s: %v", name, err)
		}
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Name != "factorio" || all[1].Name != "zomboid" {
		t.Errorf("order = [%s %s], want alphabetical", all[0].Name, all[1].Name)
	}
}
