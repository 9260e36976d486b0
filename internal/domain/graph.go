package domain

// ChainDirection selects which causal edges a chain traversal follows.
type ChainDirection string

const (
	// ChainBackward follows caused_by edges toward causes.
	ChainBackward ChainDirection = "backward"
	// ChainForward follows leads_to edges toward effects.
	ChainForward ChainDirection = "forward"
)

func ValidChainDirection(s string) bool {
	switch ChainDirection(s) {
	case ChainBackward, ChainForward:
		return true
	}
	return false
}

// LinkType returns the only edge type followed in this direction.
func (d ChainDirection) LinkType() LinkType {
	if d == ChainForward {
		return LinkLeadsTo
	}
	return LinkCausedBy
}

// ChainLink is one step of a causal chain: the memory reached and the edge type used.
type ChainLink struct {
	Memory   Memory   `json:"memory"`
	LinkType LinkType `json:"link_type"`
	Depth    int      `json:"depth"`
}

const (
	MinTraversalDepth = 1
	MaxTraversalDepth = 5
)

// ClampDepth bounds a traversal depth to [MinTraversalDepth, MaxTraversalDepth].
func ClampDepth(d int) int {
	if d < MinTraversalDepth {
		return MinTraversalDepth
	}
	if d > MaxTraversalDepth {
		return MaxTraversalDepth
	}
	return d
}
