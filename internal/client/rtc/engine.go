package rtc

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/client/peer"
)

func DefaultConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	}
}

// Engine implements peer.Engine over one pion PeerConnection.
type Engine struct {
	pc      *webrtc.PeerConnection
	remote  string
	onCand  func(json.RawMessage)
	onState func(peer.EngineState)
}

// NewFactory returns an EngineFactory that attaches the shared capture
// tracks to every fresh connection.
func NewFactory(cfg webrtc.Configuration, capture *Capture) peer.EngineFactory {
	return func(remote string) (peer.Engine, error) {
		pc, err := webrtc.NewPeerConnection(cfg)
		if err != nil {
			return nil, err
		}
		for _, t := range capture.Tracks() {
			if _, err := pc.AddTrack(t); err != nil {
				_ = pc.Close()
				return nil, err
			}
		}

		e := &Engine{pc: pc, remote: remote}

		pc.OnICECandidate(func(c *webrtc.ICECandidate) {
			if c == nil || e.onCand == nil {
				return
			}
			b, err := json.Marshal(c.ToJSON())
			if err != nil {
				log.Error().Err(err).Str("module", "client.rtc").Msg("marshal candidate")
				return
			}
			e.onCand(b)
		})

		pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
			log.Info().Str("module", "client.rtc").Str("remote", remote).Str("state", s.String()).Msg("peer state")
			if e.onState != nil {
				e.onState(mapState(s))
			}
		})

		return e, nil
	}
}

func mapState(s webrtc.PeerConnectionState) peer.EngineState {
	switch s {
	case webrtc.PeerConnectionStateConnected:
		return peer.EngineConnected
	case webrtc.PeerConnectionStateDisconnected:
		return peer.EngineDisconnected
	case webrtc.PeerConnectionStateFailed:
		return peer.EngineFailed
	case webrtc.PeerConnectionStateClosed:
		return peer.EngineClosed
	}
	return peer.EngineConnecting
}

func (e *Engine) CreateOffer() (json.RawMessage, error) {
	offer, err := e.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	if err := e.pc.SetLocalDescription(offer); err != nil {
		return nil, err
	}
	return json.Marshal(offer)
}

func (e *Engine) HandleOffer(raw json.RawMessage) (json.RawMessage, error) {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil, err
	}
	if err := e.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := e.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	if err := e.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	return json.Marshal(answer)
}

func (e *Engine) HandleAnswer(raw json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(raw, &answer); err != nil {
		return err
	}
	return e.pc.SetRemoteDescription(answer)
}

func (e *Engine) AddCandidate(raw json.RawMessage) error {
	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &cand); err != nil {
		return err
	}
	return e.pc.AddICECandidate(cand)
}

func (e *Engine) OnCandidate(fn func(json.RawMessage)) { e.onCand = fn }

func (e *Engine) OnStateChange(fn func(peer.EngineState)) { e.onState = fn }

func (e *Engine) Close() {
	if err := e.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "client.rtc").Str("remote", e.remote).Msg("close error")
	}
}
