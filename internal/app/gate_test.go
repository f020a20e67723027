package app

import (
	"testing"
	"time"
)

func TestTicketRoundTrip(t *testing.T) {
	g := NewGatekeeper(time.Minute)

	tok := g.Issue("r1", "ep-x")
	if tok == "" {
		t.Fatal("expected a non-empty ticket")
	}
	if !g.Redeem("r1", "ep-x", tok) {
		t.Error("valid ticket rejected")
	}
}

func TestTicketSingleUse(t *testing.T) {
	g := NewGatekeeper(time.Minute)

	tok := g.Issue("r1", "ep-x")
	if !g.Redeem("r1", "ep-x", tok) {
		t.Fatal("first redeem failed")
	}
	if g.Redeem("r1", "ep-x", tok) {
		t.Error("ticket redeemed twice")
	}
}

func TestTicketBinding(t *testing.T) {
	g := NewGatekeeper(time.Minute)

	tok := g.Issue("r1", "ep-x")
	if g.Redeem("r1", "ep-other", tok) {
		t.Error("ticket redeemed by a different endpoint")
	}

	tok = g.Issue("r1", "ep-x")
	if g.Redeem("r2", "ep-x", tok) {
		t.Error("ticket redeemed for a different room")
	}
}

func TestTicketExpiry(t *testing.T) {
	g := NewGatekeeper(30 * time.Second)

	base := time.Now()
	g.now = func() time.Time { return base }
	tok := g.Issue("r1", "ep-x")

	g.now = func() time.Time { return base.Add(31 * time.Second) }
	if g.Redeem("r1", "ep-x", tok) {
		t.Error("expired ticket redeemed")
	}
}

func TestUnknownTicket(t *testing.T) {
	g := NewGatekeeper(time.Minute)
	if g.Redeem("r1", "ep-x", "made-up") {
		t.Error("unknown ticket redeemed")
	}
}
