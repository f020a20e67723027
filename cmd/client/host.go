package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivchenkov/parley/internal/client/peer"
	"github.com/ivchenkov/parley/internal/client/signaling"
)

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Create a room and admit or reject joiners",
	RunE: func(cmd *cobra.Command, args []string) error {
		if roomID == "" {
			return errors.New("--room is required")
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		queue := peer.NewAdmissionQueue(func(req peer.JoinRequest) {
			fmt.Printf("%s wants to join %s: [a]ccept / [r]eject / [m]ute / [q]uit\n", req.Name, req.Room)
		})

		s.client.Send(signaling.Event{
			Type: signaling.EventCreateRoom,
			Room: roomID,
			Name: userName,
		})
		fmt.Printf("hosting room %q as %q\n", roomID, userName)

		go readCommands(s, queue)

		for ev := range s.client.Events() {
			switch ev.Type {
			case signaling.EventJoinRequest:
				queue.Enqueue(peer.JoinRequest{
					Room:      ev.Room,
					Requester: ev.ID,
					Name:      ev.Name,
				})
			case signaling.EventError:
				fmt.Printf("server error: %s\n", ev.Error)
			default:
				s.manager.HandleEvent(ev)
			}
		}
		return nil
	},
}

// readCommands drains stdin: admission decisions plus mute and quit.
func readCommands(s *session, queue *peer.AdmissionQueue) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "a":
			req, ok := queue.Resolve()
			if !ok {
				continue
			}
			s.client.Send(signaling.Event{
				Type: signaling.EventJoinAccepted,
				Room: req.Room,
				ID:   req.Requester,
				Name: req.Name,
			})
		case "r":
			req, ok := queue.Resolve()
			if !ok {
				continue
			}
			s.client.Send(signaling.Event{
				Type: signaling.EventJoinRejected,
				Room: req.Room,
				ID:   req.Requester,
			})
		case "m":
			s.capture.SetMuted(!s.capture.Muted())
			fmt.Printf("muted: %v\n", s.capture.Muted())
		case "q":
			s.client.Send(signaling.Event{Type: signaling.EventLeaveRoom, Room: roomID})
			s.close()
			return
		}
	}
}
