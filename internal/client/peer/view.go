package peer

// View is one desired on-screen placeholder, keyed by remote endpoint.
type View struct {
	Endpoint string
	Name     string
	State    LinkState
}

// ViewSink receives roster changes. The console renderer and the test fakes
// implement it.
type ViewSink interface {
	AddView(View)
	UpdateView(View)
	RemoveView(endpoint string)
}

// DesiredViews computes the view set from the link set. Pure function: the
// visual roster is always derived, never maintained by scattered calls.
func DesiredViews(links map[string]*PeerLink) map[string]View {
	out := make(map[string]View, len(links))
	for ep, l := range links {
		out[ep] = View{Endpoint: ep, Name: l.Name, State: l.state}
	}
	return out
}

// ReconcileViews diffs current against desired and applies the difference to
// the sink, returning the new current set.
func ReconcileViews(current, desired map[string]View, sink ViewSink) map[string]View {
	if sink == nil {
		return desired
	}
	for ep, v := range desired {
		old, ok := current[ep]
		if !ok {
			sink.AddView(v)
			continue
		}
		if old != v {
			sink.UpdateView(v)
		}
	}
	for ep := range current {
		if _, ok := desired[ep]; !ok {
			sink.RemoveView(ep)
		}
	}
	return desired
}
