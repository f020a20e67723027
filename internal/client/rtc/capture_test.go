package rtc

import (
	"context"
	"testing"
	"time"
)

func TestCaptureMuteToggle(t *testing.T) {
	c, err := NewCapture()
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}
	if c.Muted() {
		t.Error("capture must start unmuted")
	}
	c.SetMuted(true)
	if !c.Muted() {
		t.Error("SetMuted(true) not observed")
	}
	c.SetMuted(false)
	if c.Muted() {
		t.Error("SetMuted(false) not observed")
	}
}

func TestCaptureTracksShared(t *testing.T) {
	c, err := NewCapture()
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}
	if len(c.Tracks()) == 0 {
		t.Fatal("capture must expose at least the audio track")
	}
	// Subsequent calls hand every engine the same track instances.
	first, second := c.Tracks()[0], c.Tracks()[0]
	if first != second {
		t.Error("track set must be stable across calls")
	}
}

func TestCaptureRunStopsOnCancel(t *testing.T) {
	c, err := NewCapture()
	if err != nil {
		t.Fatalf("NewCapture failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not stop on cancel")
	}
}
