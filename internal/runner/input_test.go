package runner

import (
	"testing"
	"time"
)

func TestInputSender_EdgeTriggered(t *testing.T) {
	s := newInputSender(8)

	if s.Send(0, 0) {
		t.Fatalf("initial idle state should not be queued")
	}
	if !s.Send(0x80, 0) {
		t.Fatalf("change should be queued")
	}
	for i := 0; i < 100; i++ {
		if s.Send(0x80, 0) {
			t.Fatalf("repeat %d queued", i)
		}
	}
	if !s.Send(0x80, 1) {
		t.Fatalf("switch change should be queued")
	}
	if !s.Send(0, 0) {
		t.Fatalf("release should be queued")
	}
	if s.Pending() != 3 {
		t.Fatalf("Pending = %d, want 3", s.Pending())
	}

	want := []Input{{0x80, 0}, {0x80, 1}, {0, 0}}
	for i, w := range want {
		if got := <-s.ch; got != w {
			t.Fatalf("snapshot %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestInputSender_Close(t *testing.T) {
	s := newInputSender(1)
	s.Close()
	s.Close()
	if s.Send(1, 1) {
		t.Fatalf("send after close should be ignored")
	}
	select {
	case <-s.done:
	default:
		t.Fatalf("done should be closed")
	}
}

func TestInputSender_CloseUnblocksFullSend(t *testing.T) {
	s := newInputSender(1)
	if !s.Send(1, 0) {
		t.Fatalf("first change should be queued")
	}

	sent := make(chan bool)
	go func() { sent <- s.Send(2, 0) }()
	select {
	case <-sent:
		t.Fatalf("Send returned although the channel is full")
	case <-time.After(20 * time.Millisecond):
	}

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatalf("Close waited behind a blocked Send")
	}
	select {
	case ok := <-sent:
		if ok {
			t.Fatalf("Send reported success after Close")
		}
	case <-time.After(time.Second):
		t.Fatalf("blocked Send not released by Close")
	}
}
