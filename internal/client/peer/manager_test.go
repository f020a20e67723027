package peer_test

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/ivchenkov/parley/internal/client/peer"
	"github.com/ivchenkov/parley/internal/client/signaling"
)

// fakeEngine is a scriptable negotiation engine. Tests fire its callbacks to
// simulate candidate gathering and connection-health transitions.
type fakeEngine struct {
	mu         sync.Mutex
	remote     string
	candidates []json.RawMessage
	closed     bool
	offerErr   error

	onCandidate func(json.RawMessage)
	onState     func(peer.EngineState)
}

func (e *fakeEngine) CreateOffer() (json.RawMessage, error) {
	if e.offerErr != nil {
		return nil, e.offerErr
	}
	return json.RawMessage(`{"sdp":"offer-` + e.remote + `"}`), nil
}

func (e *fakeEngine) HandleOffer(offer json.RawMessage) (json.RawMessage, error) {
	return json.RawMessage(`{"sdp":"answer-` + e.remote + `"}`), nil
}

func (e *fakeEngine) HandleAnswer(answer json.RawMessage) error { return nil }

func (e *fakeEngine) AddCandidate(c json.RawMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.candidates = append(e.candidates, c)
	return nil
}

func (e *fakeEngine) OnCandidate(f func(json.RawMessage)) { e.onCandidate = f }
func (e *fakeEngine) OnStateChange(f func(peer.EngineState)) { e.onState = f }

func (e *fakeEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

func (e *fakeEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *fakeEngine) candidateCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.candidates)
}

// harness wires a manager to a fake factory and a recorded send function.
type harness struct {
	m *peer.Manager

	mu      sync.Mutex
	engines map[string][]*fakeEngine
	sent    []signaling.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{engines: make(map[string][]*fakeEngine)}
	factory := func(remote string) (peer.Engine, error) {
		e := &fakeEngine{remote: remote}
		h.mu.Lock()
		h.engines[remote] = append(h.engines[remote], e)
		h.mu.Unlock()
		return e, nil
	}
	h.m = peer.NewManager("local", factory, func(ev signaling.Event) {
		h.mu.Lock()
		h.sent = append(h.sent, ev)
		h.mu.Unlock()
	})
	h.m.SetStagger(0)
	return h
}

func (h *harness) engine(t *testing.T, remote string) *fakeEngine {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.engines[remote]
	if len(list) == 0 {
		t.Fatalf("no engine opened for %s", remote)
	}
	return list[len(list)-1]
}

func (h *harness) sentOfType(typ signaling.EventType) []signaling.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []signaling.Event
	for _, ev := range h.sent {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestExistingUsersOffersToEach(t *testing.T) {
	h := newHarness(t)

	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}, {ID: "ep-c", Name: "C"}},
	})

	offers := h.sentOfType(signaling.EventOffer)
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	targets := map[string]bool{}
	for _, o := range offers {
		targets[o.Target] = true
		if o.Name != "local" {
			t.Errorf("offer must carry the local display name, got %q", o.Name)
		}
	}
	if !targets["ep-b"] || !targets["ep-c"] {
		t.Errorf("offer targets mismatch: %v", targets)
	}

	links := h.m.Links()
	if links["ep-b"] != peer.LinkOffering || links["ep-c"] != peer.LinkOffering {
		t.Errorf("links should be offering, got %v", links)
	}
}

func TestAnswerCompletesOffer(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}},
	})

	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventAnswer,
		ID:      "ep-b",
		Payload: json.RawMessage(`{"sdp":"answer"}`),
	})

	if st := h.m.Links()["ep-b"]; st != peer.LinkNegotiating {
		t.Errorf("expected negotiating after answer, got %v", st)
	}
}

func TestIncomingOfferIsAnswered(t *testing.T) {
	h := newHarness(t)

	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-b",
		Name:    "B",
		Payload: json.RawMessage(`{"sdp":"their-offer"}`),
	})

	answers := h.sentOfType(signaling.EventAnswer)
	if len(answers) != 1 || answers[0].Target != "ep-b" {
		t.Fatalf("expected one answer to ep-b, got %v", answers)
	}
	if st := h.m.Links()["ep-b"]; st != peer.LinkNegotiating {
		t.Errorf("expected negotiating after answering, got %v", st)
	}
}

func TestUserJoinedReservesIdleLink(t *testing.T) {
	h := newHarness(t)

	h.m.HandleEvent(signaling.Event{Type: signaling.EventUserJoined, ID: "ep-n", Name: "N"})

	if len(h.sentOfType(signaling.EventOffer)) != 0 {
		t.Error("user-joined must not trigger an offer; the newcomer offers")
	}
	if st := h.m.Links()["ep-n"]; st != peer.LinkIdle {
		t.Errorf("expected idle placeholder link, got %v", st)
	}
}

func TestOfferSupersedesPriorLink(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}},
	})
	first := h.engine(t, "ep-b")

	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-b",
		Name:    "B",
		Payload: json.RawMessage(`{"sdp":"restart"}`),
	})
	second := h.engine(t, "ep-b")

	if first == second {
		t.Fatal("a new offer must open a fresh engine")
	}
	if !first.isClosed() {
		t.Error("superseded engine must be closed")
	}

	// Late state signal from the superseded engine is ignored.
	first.onState(peer.EngineFailed)
	if st := h.m.Links()["ep-b"]; st != peer.LinkNegotiating {
		t.Errorf("superseded engine failure must not affect the live link, got %v", st)
	}
}

func TestCandidatesBufferedUntilRemoteApplied(t *testing.T) {
	h := newHarness(t)

	cand := json.RawMessage(`{"candidate":"early"}`)
	h.m.HandleEvent(signaling.Event{Type: signaling.EventICECandidate, ID: "ep-b", Payload: cand})

	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-b",
		Name:    "B",
		Payload: json.RawMessage(`{"sdp":"their-offer"}`),
	})

	eng := h.engine(t, "ep-b")
	if eng.candidateCount() != 1 {
		t.Fatalf("buffered candidate was not flushed, engine has %d", eng.candidateCount())
	}

	// Once the remote proposal is applied, candidates go straight through.
	h.m.HandleEvent(signaling.Event{Type: signaling.EventICECandidate, ID: "ep-b", Payload: cand})
	if eng.candidateCount() != 2 {
		t.Errorf("post-apply candidate should reach the engine directly, has %d", eng.candidateCount())
	}
}

func TestCandidateIsolationAcrossLinks(t *testing.T) {
	h := newHarness(t)

	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventICECandidate,
		ID:      "ep-b",
		Payload: json.RawMessage(`{"candidate":"for-b"}`),
	})
	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-c",
		Name:    "C",
		Payload: json.RawMessage(`{"sdp":"offer-c"}`),
	})

	if n := h.engine(t, "ep-c").candidateCount(); n != 0 {
		t.Errorf("candidate buffered for ep-b leaked into ep-c's engine: %d", n)
	}
}

func TestCandidateBufferIsBounded(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 40; i++ {
		h.m.HandleEvent(signaling.Event{
			Type:    signaling.EventICECandidate,
			ID:      "ep-b",
			Payload: json.RawMessage(`{"candidate":"x"}`),
		})
	}
	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-b",
		Name:    "B",
		Payload: json.RawMessage(`{"sdp":"their-offer"}`),
	})

	if n := h.engine(t, "ep-b").candidateCount(); n > 16 {
		t.Errorf("buffer must cap queued candidates, flushed %d", n)
	}
}

func TestUserLeftDropsLink(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}},
	})
	eng := h.engine(t, "ep-b")

	h.m.HandleEvent(signaling.Event{Type: signaling.EventUserLeft, ID: "ep-b"})

	if !eng.isClosed() {
		t.Error("departed peer's engine must be closed")
	}
	if _, ok := h.m.Links()["ep-b"]; ok {
		t.Error("departed peer's link must be removed")
	}
}

func TestEngineConnectedMarksLink(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:    signaling.EventOffer,
		ID:      "ep-b",
		Name:    "B",
		Payload: json.RawMessage(`{"sdp":"their-offer"}`),
	})

	h.engine(t, "ep-b").onState(peer.EngineConnected)

	if st := h.m.Links()["ep-b"]; st != peer.LinkConnected {
		t.Errorf("expected connected, got %v", st)
	}
}

func TestEngineFailureClosesOnlyThatLink(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}, {ID: "ep-c", Name: "C"}},
	})

	h.engine(t, "ep-b").onState(peer.EngineFailed)

	links := h.m.Links()
	if _, ok := links["ep-b"]; ok {
		t.Error("failed link must be removed")
	}
	if _, ok := links["ep-c"]; !ok {
		t.Error("unrelated link must survive a neighbor's failure")
	}
	if !h.engine(t, "ep-b").isClosed() {
		t.Error("failed engine must be closed")
	}
	if h.engine(t, "ep-c").isClosed() {
		t.Error("healthy engine must not be closed")
	}
}

func TestLocalCandidateIsRelayed(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}},
	})

	h.engine(t, "ep-b").onCandidate(json.RawMessage(`{"candidate":"local"}`))

	cands := h.sentOfType(signaling.EventICECandidate)
	if len(cands) != 1 || cands[0].Target != "ep-b" {
		t.Fatalf("expected one candidate relayed to ep-b, got %v", cands)
	}
}

func TestCloseAllTearsDownEverything(t *testing.T) {
	h := newHarness(t)
	h.m.HandleEvent(signaling.Event{
		Type:  signaling.EventExistingUsers,
		Users: []signaling.User{{ID: "ep-b", Name: "B"}, {ID: "ep-c", Name: "C"}},
	})

	h.m.CloseAll()

	if n := len(h.m.Links()); n != 0 {
		t.Errorf("expected empty link set, got %d", n)
	}
	for _, ep := range []string{"ep-b", "ep-c"} {
		if !h.engine(t, ep).isClosed() {
			t.Errorf("engine for %s not closed", ep)
		}
	}
}
