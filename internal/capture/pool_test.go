package capture

import (
	"errors"
	"sync"
	"testing"

	"gocv.io/x/gocv"
)

// stubCamera is an in-memory Camera that counts reads and can be told to
// fail. It avoids touching real devices in pool tests.
type stubCamera struct {
	mu     sync.Mutex
	open   bool
	reads  int
	failed bool
}

func (c *stubCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	return nil
}

func (c *stubCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *stubCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.failed {
		return nil, ErrReadFailed
	}
	c.reads++
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *stubCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// stubOpener builds pools whose open function hands out stub cameras and
// records every camera it created.
type stubOpener struct {
	mu      sync.Mutex
	opens   int
	failing bool
	last    *stubCamera
	created []*stubCamera
}

func (o *stubOpener) open(source string) (Camera, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.opens++
	if o.failing {
		return nil, &SourceError{Source: ParseSource(source), Err: errors.New("unreachable")}
	}

	cam := &stubCamera{open: true}
	o.last = cam
	o.created = append(o.created, cam)
	return cam, nil
}

func (o *stubOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// liveHandles counts created cameras that were never closed.
func (o *stubOpener) liveHandles() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	live := 0
	for _, cam := range o.created {
		if cam.IsOpen() {
			live++
		}
	}
	return live
}

func TestPool_Acquire_ReusesOpenHandle(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	first, err := p.Acquire("cam-1", "0")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	second, err := p.Acquire("cam-1", "0")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if first != second {
		t.Error("Acquire() should return the same handle while it is open")
	}
	if got := opener.openCount(); got != 1 {
		t.Errorf("open count = %d, want 1", got)
	}
}

func TestPool_Acquire_OpenFailure(t *testing.T) {
	opener := &stubOpener{failing: true}
	p := NewPoolWithOpen(opener.open)

	_, err := p.Acquire("cam-1", "rtsp://unreachable/stream")
	if err == nil {
		t.Fatal("Acquire() should fail when the source cannot open")
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Errorf("Acquire() error = %T, want *SourceError", err)
	}

	if p.Has("cam-1") {
		t.Error("Has() should be false after a failed open")
	}
}

func TestPool_MarkDead_ReopensOnNextAcquire(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	first, err := p.Acquire("cam-1", "0")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	p.MarkDead("cam-1")

	if first.IsOpen() {
		t.Error("MarkDead() should close the dead handle")
	}
	if p.Has("cam-1") {
		t.Error("Has() should be false after MarkDead")
	}

	second, err := p.Acquire("cam-1", "0")
	if err != nil {
		t.Fatalf("Acquire() after MarkDead error = %v", err)
	}

	if second == first {
		t.Error("Acquire() after MarkDead should open a fresh handle")
	}
	if got := opener.openCount(); got != 2 {
		t.Errorf("open count = %d, want 2", got)
	}
	if !p.Has("cam-1") {
		t.Error("Has() should be true after the reopen")
	}
}

func TestPool_Release_Idempotent(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	cam, err := p.Acquire("cam-1", "0")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	p.Release("cam-1")
	if cam.IsOpen() {
		t.Error("Release() should close the handle")
	}
	if p.Has("cam-1") {
		t.Error("Has() should be false after Release")
	}

	// Releasing again, or releasing an unknown id, must be a no-op
	p.Release("cam-1")
	p.Release("never-acquired")
}

func TestPool_ConcurrentAcquire_SingleOpen(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	const goroutines = 16
	handles := make([]Camera, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cam, err := p.Acquire("cam-1", "0")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			handles[i] = cam
		}(i)
	}
	wg.Wait()

	if got := opener.openCount(); got != 1 {
		t.Errorf("open count = %d, want 1 (reconnection storm must collapse)", got)
	}

	for i := 1; i < goroutines; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("goroutine %d received a different handle", i)
		}
	}
}

func TestPool_AcquireReleaseRace_NoLeakedHandles(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	// Hammer one camera id with interleaved Acquire/Release. A handle
	// stored in an entry that Release already removed from the map
	// would be unreachable (Has false, Release a no-op) and stay open
	// forever.
	const (
		goroutines = 8
		iterations = 200
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if _, err := p.Acquire("cam-1", "0"); err != nil {
					t.Errorf("Acquire() error = %v", err)
					return
				}
				p.Release("cam-1")
			}
		}()
	}
	wg.Wait()

	p.Release("cam-1")

	if p.Has("cam-1") {
		t.Error("Has() should be false after the final Release")
	}
	if got := opener.liveHandles(); got != 0 {
		t.Errorf("handles still open = %d, want 0 (every opened handle must stay reachable through the pool)", got)
	}
}

func TestPool_IndependentCameras(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	a, err := p.Acquire("cam-a", "0")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	b, err := p.Acquire("cam-b", "1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if a == b {
		t.Error("different camera ids must not share a handle")
	}

	p.Release("cam-a")
	if p.Has("cam-a") {
		t.Error("cam-a should be released")
	}
	if !p.Has("cam-b") {
		t.Error("releasing cam-a must not touch cam-b")
	}
}

func TestPool_Close(t *testing.T) {
	opener := &stubOpener{}
	p := NewPoolWithOpen(opener.open)

	if _, err := p.Acquire("cam-a", "0"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := p.Acquire("cam-b", "1"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	p.Close()

	if p.Has("cam-a") || p.Has("cam-b") {
		t.Error("Close() should release every handle")
	}
}
