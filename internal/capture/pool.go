package capture

import (
	"sync"
)

// OpenFunc opens a capture handle for a source descriptor. The default
// implementation classifies the descriptor and opens a GoCV capture; tests
// inject their own to avoid touching real devices.
type OpenFunc func(source string) (Camera, error)

func defaultOpen(source string) (Camera, error) {
	cam := NewCamera(source)
	if err := cam.Open(); err != nil {
		return nil, err
	}
	return cam, nil
}

// Pool owns at most one live capture handle per camera id. All handle
// mutations for one id are serialized by that id's entry mutex, so
// concurrent reconnect attempts collapse to a single reopen.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
	open    OpenFunc
}

type poolEntry struct {
	mu  sync.Mutex
	cam Camera
}

// NewPool creates a Pool that opens real capture devices.
func NewPool() *Pool {
	return NewPoolWithOpen(defaultOpen)
}

// NewPoolWithOpen creates a Pool with a custom open function.
func NewPoolWithOpen(open OpenFunc) *Pool {
	return &Pool{
		entries: make(map[string]*poolEntry),
		open:    open,
	}
}

func (p *Pool) entry(cameraID string) *poolEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[cameraID]
	if !ok {
		e = &poolEntry{}
		p.entries[cameraID] = e
	}
	return e
}

// Acquire returns the live handle for the camera, opening one from the
// source descriptor if none is open. Callers waiting on a concurrent open
// for the same id receive the handle that open produced.
func (p *Pool) Acquire(cameraID, source string) (Camera, error) {
	for {
		e := p.entry(cameraID)
		e.mu.Lock()

		// A concurrent Release may have removed the entry between the
		// map lookup and the lock. Storing a handle in such an orphaned
		// entry would leak it past Has/Release, so start over with a
		// fresh entry. While we hold e.mu a later Release blocks until
		// we are done and then closes whatever we stored.
		p.mu.Lock()
		stale := p.entries[cameraID] != e
		p.mu.Unlock()
		if stale {
			e.mu.Unlock()
			continue
		}

		if e.cam != nil && e.cam.IsOpen() {
			cam := e.cam
			e.mu.Unlock()
			return cam, nil
		}

		cam, err := p.open(source)
		if err != nil {
			e.cam = nil
			e.mu.Unlock()
			return nil, err
		}

		e.cam = cam
		e.mu.Unlock()
		return cam, nil
	}
}

// Release closes and removes the handle for the camera. It is an
// idempotent no-op when no handle exists.
func (p *Pool) Release(cameraID string) {
	p.mu.Lock()
	e, ok := p.entries[cameraID]
	if ok {
		delete(p.entries, cameraID)
	}
	p.mu.Unlock()

	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cam != nil {
		e.cam.Close()
		e.cam = nil
	}
}

// MarkDead invalidates the handle after a failed read. The next Acquire
// for the camera reopens from its source descriptor.
func (p *Pool) MarkDead(cameraID string) {
	p.mu.Lock()
	e, ok := p.entries[cameraID]
	p.mu.Unlock()

	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cam != nil {
		e.cam.Close()
		e.cam = nil
	}
}

// Has reports whether the camera currently has a live open handle.
func (p *Pool) Has(cameraID string) bool {
	p.mu.Lock()
	e, ok := p.entries[cameraID]
	p.mu.Unlock()

	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cam != nil && e.cam.IsOpen()
}

// Close releases every handle in the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*poolEntry)
	p.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.cam != nil {
			e.cam.Close()
			e.cam = nil
		}
		e.mu.Unlock()
	}
}
