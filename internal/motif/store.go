// Package motif holds the user-authored nodes and connections of one base
// cell, with an undo log and nearest-node picking.
package motif

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"raumharmonik/internal/geometry"
	"raumharmonik/internal/grid"
)

var (
	// ErrDuplicateSegment is soft: the connection already exists and nothing
	// changed.
	ErrDuplicateSegment = errors.New("segment already exists")
	ErrSameEndpoint     = errors.New("segment endpoints are the same node")
	ErrUnknownNode      = errors.New("unknown node")
)

// HISTORY_LIMIT bounds the undo stack.
const HISTORY_LIMIT = 100

// Segment is an undirected connection between two node ids. Key is the same
// whichever way round the endpoints are given.
type Segment struct {
	A   int    `json:"a"`
	B   int    `json:"b"`
	Key string `json:"key"`
}

type ActionKind int

const (
	ActionAdd ActionKind = iota
	ActionRemove
)

// Action is one committed batch, undone by applying its inverse.
type Action struct {
	Kind     ActionKind
	Segments []Segment
}

// Store is the node arena plus the ordered connection list. Node lookups
// go through an id to index map.
type Store struct {
	nodes []grid.LatticePoint
	index map[int]int

	conns []Segment
	keys  map[string]bool

	undo []Action
	redo []Action

	rev    uint64
	nextID int
	picker *Index
}

func NewStore(nodes []grid.LatticePoint) *Store {
	s := &Store{}
	s.Reset(nodes)
	return s
}

// Reset replaces the nodes after a topology change. Connections and history
// go with them since the ids they refer to no longer mean the same thing.
func (me *Store) Reset(nodes []grid.LatticePoint) {
	me.nodes = slices.Clone(nodes)
	me.index = make(map[int]int, len(nodes))
	me.nextID = 1
	for i, n := range me.nodes {
		me.index[n.ID] = i
		if n.ID >= me.nextID {
			me.nextID = n.ID + 1
		}
	}
	me.conns = nil
	me.keys = make(map[string]bool)
	me.undo = nil
	me.redo = nil
	me.picker = nil
	me.rev++
}

// Relocate moves the nodes to new positions without touching the
// connections, as after a canvas resize. nodes must carry exactly the ids
// already in the store. Segment keys follow the new positions, history
// included.
func (me *Store) Relocate(nodes []grid.LatticePoint) error {
	if len(nodes) != len(me.nodes) {
		return geometry.Invalid("nodes", len(nodes), fmt.Sprintf("expected %d nodes", len(me.nodes)))
	}
	for _, n := range nodes {
		if _, ok := me.index[n.ID]; !ok {
			return fmt.Errorf("node %d: %w", n.ID, ErrUnknownNode)
		}
	}
	for _, n := range nodes {
		me.nodes[me.index[n.ID]].Pos = n.Pos
	}

	rekey := func(segs []Segment) {
		for i := range segs {
			segs[i].Key, _ = me.SegmentKey(segs[i].A, segs[i].B)
		}
	}
	rekey(me.conns)
	for _, a := range me.undo {
		rekey(a.Segments)
	}
	for _, a := range me.redo {
		rekey(a.Segments)
	}
	me.keys = make(map[string]bool, len(me.conns))
	for _, s := range me.conns {
		me.keys[s.Key] = true
	}
	me.picker = nil
	me.rev++
	return nil
}

func (me *Store) Nodes() []grid.LatticePoint {
	return slices.Clone(me.nodes)
}

func (me *Store) NodeCount() int {
	return len(me.nodes)
}

func (me *Store) Node(id int) (grid.LatticePoint, bool) {
	i, ok := me.index[id]
	if !ok {
		return grid.LatticePoint{}, false
	}
	return me.nodes[i], true
}

// AddPoint appends a free-form node at p. A node already sitting at p (by
// key) is returned instead of a new one.
func (me *Store) AddPoint(p r3.Vec) grid.LatticePoint {
	key := geometry.Key3(p)
	for _, n := range me.nodes {
		if n.Key() == key {
			return n
		}
	}
	n := grid.LatticePoint{ID: me.nextID, Pos: p}
	me.nextID++
	me.index[n.ID] = len(me.nodes)
	me.nodes = append(me.nodes, n)
	me.picker = nil
	return n
}

// Revision changes whenever the connection set does.
func (me *Store) Revision() uint64 {
	return me.rev
}

// SegmentKey is the canonical key of the connection between a and b.
func (me *Store) SegmentKey(a, b int) (string, error) {
	na, ok := me.Node(a)
	if !ok {
		return "", fmt.Errorf("node %d: %w", a, ErrUnknownNode)
	}
	nb, ok := me.Node(b)
	if !ok {
		return "", fmt.Errorf("node %d: %w", b, ErrUnknownNode)
	}
	ka, kb := na.Key(), nb.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return ka + "|" + kb, nil
}

func (me *Store) segment(a, b int) (Segment, error) {
	if a == b {
		return Segment{}, ErrSameEndpoint
	}
	key, err := me.SegmentKey(a, b)
	if err != nil {
		return Segment{}, err
	}
	na, _ := me.Node(a)
	nb, _ := me.Node(b)
	if na.Key() == nb.Key() {
		// distinct ids stacked on one position
		return Segment{}, ErrSameEndpoint
	}
	return Segment{A: a, B: b, Key: key}, nil
}

func (me *Store) Has(a, b int) bool {
	key, err := me.SegmentKey(a, b)
	return err == nil && me.keys[key]
}

func (me *Store) Segments() []Segment {
	return slices.Clone(me.conns)
}

func (me *Store) SegmentCount() int {
	return len(me.conns)
}

func (me *Store) push(a Action) {
	me.undo = append(me.undo, a)
	if len(me.undo) > HISTORY_LIMIT {
		me.undo = slices.Delete(me.undo, 0, len(me.undo)-HISTORY_LIMIT)
	}
	me.redo = nil
}

func (me *Store) insert(seg Segment) {
	me.conns = append(me.conns, seg)
	me.keys[seg.Key] = true
}

func (me *Store) delete(key string) bool {
	i := slices.IndexFunc(me.conns, func(s Segment) bool { return s.Key == key })
	if i < 0 {
		return false
	}
	me.conns = slices.Delete(me.conns, i, i+1)
	delete(me.keys, key)
	return true
}

// CommitSegment connects a and b as one undoable action.
func (me *Store) CommitSegment(a, b int) (Segment, error) {
	seg, err := me.segment(a, b)
	if err != nil {
		return Segment{}, err
	}
	if me.keys[seg.Key] {
		return Segment{}, ErrDuplicateSegment
	}
	me.insert(seg)
	me.push(Action{Kind: ActionAdd, Segments: []Segment{seg}})
	me.rev++
	return seg, nil
}

// CommitBatch connects every pair it can as a single undoable action and
// returns what was added. Invalid and duplicate pairs are skipped.
func (me *Store) CommitBatch(pairs [][2]int) []Segment {
	var added []Segment
	for _, p := range pairs {
		seg, err := me.segment(p[0], p[1])
		if err != nil || me.keys[seg.Key] {
			continue
		}
		me.insert(seg)
		added = append(added, seg)
	}
	if len(added) > 0 {
		me.push(Action{Kind: ActionAdd, Segments: added})
		me.rev++
	}
	return added
}

// RemoveSegment disconnects a and b as one undoable action. It reports
// whether the connection existed.
func (me *Store) RemoveSegment(a, b int) bool {
	key, err := me.SegmentKey(a, b)
	if err != nil {
		return false
	}
	i := slices.IndexFunc(me.conns, func(s Segment) bool { return s.Key == key })
	if i < 0 {
		return false
	}
	seg := me.conns[i]
	me.delete(key)
	me.push(Action{Kind: ActionRemove, Segments: []Segment{seg}})
	me.rev++
	return true
}

// Clear removes every connection. The nodes stay and the removal can be
// undone like any other action.
func (me *Store) Clear() bool {
	if len(me.conns) == 0 {
		return false
	}
	removed := me.conns
	me.conns = nil
	me.keys = make(map[string]bool)
	me.push(Action{Kind: ActionRemove, Segments: removed})
	me.rev++
	return true
}

func (me *Store) apply(a Action, forward bool) {
	adding := (a.Kind == ActionAdd) == forward
	for _, seg := range a.Segments {
		if adding {
			if !me.keys[seg.Key] {
				me.insert(seg)
			}
		} else {
			me.delete(seg.Key)
		}
	}
	me.rev++
}

func (me *Store) CanUndo() bool { return len(me.undo) > 0 }
func (me *Store) CanRedo() bool { return len(me.redo) > 0 }

// Undo reverts the last action. It is a no-op on an empty history.
func (me *Store) Undo() bool {
	if len(me.undo) == 0 {
		return false
	}
	a := me.undo[len(me.undo)-1]
	me.undo = me.undo[:len(me.undo)-1]
	me.apply(a, false)
	me.redo = append(me.redo, a)
	return true
}

func (me *Store) Redo() bool {
	if len(me.redo) == 0 {
		return false
	}
	a := me.redo[len(me.redo)-1]
	me.redo = me.redo[:len(me.redo)-1]
	me.apply(a, true)
	me.undo = append(me.undo, a)
	return true
}

// AddRandomSegment connects two random unconnected nodes. ok is false when
// no such pair was found.
func (me *Store) AddRandomSegment(rng *rand.Rand) (Segment, bool) {
	n := len(me.nodes)
	if n < 2 {
		return Segment{}, false
	}
	const tries = 50
	for i := 0; i < tries; i++ {
		a := me.nodes[rng.IntN(n)].ID
		b := me.nodes[rng.IntN(n)].ID
		seg, err := me.CommitSegment(a, b)
		if err == nil {
			return seg, true
		}
	}
	return Segment{}, false
}

// Endpoints resolves a segment to its node positions.
func (me *Store) Endpoints(seg Segment) (r3.Vec, r3.Vec, bool) {
	a, okA := me.Node(seg.A)
	b, okB := me.Node(seg.B)
	return a.Pos, b.Pos, okA && okB
}

// Crossings counts pairs of connections that cross in the drawing plane
// without sharing an endpoint.
func (me *Store) Crossings() int {
	count := 0
	for i := 0; i < len(me.conns); i++ {
		p1, p2, ok := me.Endpoints(me.conns[i])
		if !ok {
			continue
		}
		a1, a2 := geometry.Coord(p1), geometry.Coord(p2)
		for j := i + 1; j < len(me.conns); j++ {
			q1, q2, ok := me.Endpoints(me.conns[j])
			if !ok {
				continue
			}
			b1, b2 := geometry.Coord(q1), geometry.Coord(q2)
			if geometry.SharesEndpoint(a1, a2, b1, b2) {
				continue
			}
			if geometry.SegmentsCross(a1, a2, b1, b2) {
				count++
			}
		}
	}
	return count
}
