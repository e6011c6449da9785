package transport

// Registry holds the transports usable in this process, in preference order.
// It is built once at startup and never mutated afterwards.
type Registry struct {
	available []Transport
}

// NewRegistry keeps the candidates whose Available probe succeeds.
func NewRegistry(candidates ...Transport) *Registry {
	r := &Registry{}
	for _, t := range candidates {
		if t != nil && t.Available() {
			r.available = append(r.available, t)
		}
	}
	return r
}

// Default registers the pooled transport first, then the direct one.
func Default() *Registry {
	return NewRegistry(NewPooled(), NewDirect())
}

// Kinds lists the available transports in order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.available))
	for _, t := range r.available {
		kinds = append(kinds, t.Kind())
	}
	return kinds
}

// Empty reports whether no transport is available.
func (r *Registry) Empty() bool {
	return len(r.available) == 0
}

// Select returns the transport named by preference. An unknown or unavailable
// preference falls back to the first available transport and reports
// fallback=true.
func (r *Registry) Select(preference string) (t Transport, fallback bool, err error) {
	if r.Empty() {
		return nil, false, ErrNoTransport
	}
	if kind, perr := ParseKind(preference); perr == nil {
		for _, t := range r.available {
			if t.Kind() == kind {
				return t, false, nil
			}
		}
	}
	return r.available[0], true, nil
}
