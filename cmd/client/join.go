package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivchenkov/parley/internal/client/signaling"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Request admission to a room and join on approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		if roomID == "" {
			return errors.New("--room is required")
		}

		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		s.client.Send(signaling.Event{
			Type: signaling.EventJoinRequest,
			Room: roomID,
			Name: userName,
		})
		fmt.Printf("asked to join room %q, waiting for the owner\n", roomID)

		for ev := range s.client.Events() {
			switch ev.Type {
			case signaling.EventJoinAccepted:
				fmt.Println("admitted, joining")
				s.client.Send(signaling.Event{
					Type:   signaling.EventJoinRoom,
					Room:   roomID,
					Name:   userName,
					Ticket: ev.Ticket,
				})
			case signaling.EventJoinRejected:
				return errors.New("the owner rejected the request")
			case signaling.EventRoomNotFound:
				return errors.New("room not found")
			case signaling.EventError:
				fmt.Printf("server error: %s\n", ev.Error)
			default:
				s.manager.HandleEvent(ev)
			}
		}
		return nil
	},
}
