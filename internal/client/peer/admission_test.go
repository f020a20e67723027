package peer_test

import (
	"testing"

	"github.com/ivchenkov/parley/internal/client/peer"
)

func TestAdmissionQueueSerializesPrompts(t *testing.T) {
	var prompts []string
	q := peer.NewAdmissionQueue(func(r peer.JoinRequest) {
		prompts = append(prompts, r.Requester)
	})

	q.Enqueue(peer.JoinRequest{Room: "r1", Requester: "ep-1", Name: "One"})
	q.Enqueue(peer.JoinRequest{Room: "r1", Requester: "ep-2", Name: "Two"})

	if len(prompts) != 1 || prompts[0] != "ep-1" {
		t.Fatalf("only the first request may surface while unresolved, got %v", prompts)
	}
	if q.Pending() != 2 {
		t.Errorf("expected 2 pending, got %d", q.Pending())
	}

	req, ok := q.Resolve()
	if !ok || req.Requester != "ep-1" {
		t.Fatalf("resolve should pop ep-1, got %v ok=%v", req, ok)
	}
	if len(prompts) != 2 || prompts[1] != "ep-2" {
		t.Fatalf("resolving must surface the next request, got %v", prompts)
	}

	req, ok = q.Resolve()
	if !ok || req.Requester != "ep-2" {
		t.Fatalf("resolve should pop ep-2, got %v ok=%v", req, ok)
	}
	if q.Pending() != 0 {
		t.Errorf("queue should be drained, %d pending", q.Pending())
	}
}

func TestAdmissionQueueResolveEmpty(t *testing.T) {
	q := peer.NewAdmissionQueue(nil)
	if _, ok := q.Resolve(); ok {
		t.Error("resolving an empty queue must report ok=false")
	}
}

func TestAdmissionQueueNewRequestAfterDrain(t *testing.T) {
	var prompts []string
	q := peer.NewAdmissionQueue(func(r peer.JoinRequest) {
		prompts = append(prompts, r.Requester)
	})

	q.Enqueue(peer.JoinRequest{Requester: "ep-1"})
	q.Resolve()
	q.Enqueue(peer.JoinRequest{Requester: "ep-2"})

	if len(prompts) != 2 || prompts[1] != "ep-2" {
		t.Errorf("a request after a drain should surface immediately, got %v", prompts)
	}
}
