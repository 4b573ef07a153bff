package motif

// Outcome is what a selection did.
type Outcome int

const (
	// Selected means the node is now pending.
	Selected Outcome = iota
	// Cancelled means the pending node was selected again.
	Cancelled
	Committed
	// Rejected means a second node was picked but no segment resulted.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Selected:
		return "selected"
	case Cancelled:
		return "cancelled"
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Selector builds connections from successive pointer selections:
// Idle, then Pending on the first node, then back to Idle once a second
// node commits a segment. Selecting the pending node again cancels.
type Selector struct {
	pending int
	active  bool
}

func (me *Selector) Pending() (int, bool) {
	return me.pending, me.active
}

func (me *Selector) Reset() {
	me.pending, me.active = 0, false
}

// Select feeds node id to the state machine. err carries the reason for a
// Rejected outcome.
func (me *Selector) Select(s *Store, id int) (Outcome, Segment, error) {
	if !me.active {
		me.pending, me.active = id, true
		return Selected, Segment{}, nil
	}
	first := me.pending
	me.Reset()
	if first == id {
		return Cancelled, Segment{}, nil
	}
	seg, err := s.CommitSegment(first, id)
	if err != nil {
		return Rejected, Segment{}, err
	}
	return Committed, seg, nil
}
