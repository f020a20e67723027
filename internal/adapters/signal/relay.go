package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/ivchenkov/parley/internal/core"
)

// handleRelay forwards offer / answer / ice-candidate frames verbatim to the
// target, annotated with the sender endpoint. Payload contents are opaque
// here; the negotiation engine on the far side owns their meaning.
func (ctl *Controller) handleRelay(ep core.EndpointID, kind string, data []byte) {
	type payload struct {
		Type    string          `json:"type"`
		Target  string          `json:"target"`
		Name    string          `json:"name,omitempty"`
		Payload json.RawMessage `json:"payload"`
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad relay payload")
		return
	}
	if p.Target == "" {
		log.Warn().Str("module", "signal").Str("kind", kind).Str("endpoint", string(ep)).Msg("relay without target")
		return
	}

	out := struct {
		Type    string          `json:"type"`
		ID      core.EndpointID `json:"id"`
		Name    string          `json:"name,omitempty"`
		Payload json.RawMessage `json:"payload"`
	}{Type: kind, ID: ep, Payload: p.Payload}
	if kind == "offer" {
		out.Name = p.Name
	}

	log.Debug().Str("module", "signal").Str("kind", kind).Str("from", string(ep)).Str("to", p.Target).Msg("relay")
	ctl.sendTo(core.EndpointID(p.Target), out)
}
