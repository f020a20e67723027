package main

import (
	"context"
	"fmt"

	"github.com/ivchenkov/parley/internal/client/peer"
	"github.com/ivchenkov/parley/internal/client/rtc"
	"github.com/ivchenkov/parley/internal/client/signaling"
)

// session bundles the signaling client, the peer manager and the console
// roster for one run of host or join.
type session struct {
	client  *signaling.Client
	manager *peer.Manager
	capture *rtc.Capture
	cancel  context.CancelFunc
}

// newSession acquires the local capture source, dials the server and wires
// the manager. Capture failure aborts before any room interaction.
func newSession() (*session, error) {
	capture, err := rtc.NewCapture()
	if err != nil {
		return nil, fmt.Errorf("could not acquire local media: %w", err)
	}

	client := signaling.NewClient(serverURL)
	if err := client.Connect(); err != nil {
		return nil, err
	}

	factory := rtc.NewFactory(rtc.DefaultConfig(), capture)
	manager := peer.NewManager(userName, factory, client.Send)
	manager.SetStagger(stagger)
	manager.SetViewSink(&consoleRoster{})

	ctx, cancel := context.WithCancel(context.Background())
	go capture.Run(ctx)

	return &session{client: client, manager: manager, capture: capture, cancel: cancel}, nil
}

func (s *session) close() {
	s.cancel()
	s.manager.CloseAll()
	s.client.Close()
}

// consoleRoster is the terminal stand-in for the per-peer video tiles: one
// line per view change, keyed by remote endpoint.
type consoleRoster struct{}

func (consoleRoster) AddView(v peer.View) {
	fmt.Printf("+ %s (%s) [%s]\n", v.Name, v.Endpoint, v.State)
}

func (consoleRoster) UpdateView(v peer.View) {
	fmt.Printf("~ %s (%s) [%s]\n", v.Name, v.Endpoint, v.State)
}

func (consoleRoster) RemoveView(endpoint string) {
	fmt.Printf("- (%s) left\n", endpoint)
}
