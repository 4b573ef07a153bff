package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"raumharmonik/internal/scene"
)

// DEFAULT_MAX_SCENES applies when the registry is created with a
// non-positive limit.
const DEFAULT_MAX_SCENES = 64

type entry struct {
	mu    sync.Mutex
	scene *scene.TileScene
	// unix nanoseconds, read by eviction without holding mu
	lastAccessed atomic.Int64
}

// Registry holds the live interactive scenes keyed by uuid. Each scene is
// guarded by its own mutex, so requests on different scenes run in
// parallel while requests on one scene are serialized.
type Registry struct {
	mu      sync.RWMutex
	scenes  map[string]*entry
	max     int
	evicted int
	now     func() time.Time
}

func NewRegistry(max int) *Registry {
	if max <= 0 {
		max = DEFAULT_MAX_SCENES
	}
	return &Registry{
		scenes: make(map[string]*entry),
		max:    max,
		now:    time.Now,
	}
}

// Add stores s under a fresh id. At the limit the least recently used scene
// is dropped first.
func (r *Registry) Add(s *scene.TileScene) string {
	id := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	for len(r.scenes) >= r.max {
		r.evictOldestLocked()
	}
	e := &entry{scene: s}
	e.lastAccessed.Store(r.now().UnixNano())
	r.scenes[id] = e
	return id
}

func (r *Registry) evictOldestLocked() {
	var oldestID string
	var oldest int64
	for id, e := range r.scenes {
		if at := e.lastAccessed.Load(); oldestID == "" || at < oldest {
			oldestID, oldest = id, at
		}
	}
	delete(r.scenes, oldestID)
	r.evicted++
}

// With runs f with exclusive access to the scene id. ok is false when no
// such scene exists.
func (r *Registry) With(id string, f func(s *scene.TileScene) error) (ok bool, err error) {
	r.mu.RLock()
	e, found := r.scenes[id]
	r.mu.RUnlock()
	if !found {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastAccessed.Store(r.now().UnixNano())
	return true, f(e.scene)
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scenes[id]; !ok {
		return false
	}
	delete(r.scenes, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenes)
}

// Evicted counts the scenes dropped to make room.
func (r *Registry) Evicted() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.evicted
}
