package pool

import (
	"sync"
	"testing"
)

type testBuffer struct {
	data []byte
}

func TestPoolGetPut(t *testing.T) {
	p := New(
		func() *testBuffer { return &testBuffer{data: make([]byte, 0, 64)} },
		func(b *testBuffer) { b.data = b.data[:0] },
	)

	buf := p.Get()
	if buf == nil {
		t.Fatal("expected non-nil object from pool")
	}

	buf.data = append(buf.data, 'x')
	p.Put(buf)

	// Reset must have run on the way back in
	buf2 := p.Get()
	if len(buf2.data) != 0 {
		t.Errorf("expected reset object, got length %d", len(buf2.data))
	}
	p.Put(buf2)
}

func TestPoolStats(t *testing.T) {
	p := New(func() int { return 0 }, nil)

	v := p.Get()
	p.Put(v)

	allocated, inUse, hits, _ := p.Stats()
	if allocated == 0 {
		t.Error("expected at least one allocation")
	}
	if inUse != 0 {
		t.Errorf("expected zero in-use after Put, got %d", inUse)
	}
	if hits == 0 {
		t.Error("expected at least one hit")
	}
}

func TestPoolConcurrent(t *testing.T) {
	p := New(
		func() []int { return make([]int, 0, 8) },
		nil,
	)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := p.Get()
				p.Put(s)
			}
		}()
	}
	wg.Wait()
}

func TestStringSlicePool(t *testing.T) {
	s := GetStringSlice()
	if len(s) != 0 {
		t.Errorf("expected empty slice, got length %d", len(s))
	}

	s = append(s, "a", "b")
	PutStringSlice(s)

	s2 := GetStringSlice()
	if len(s2) != 0 {
		t.Errorf("expected reset slice, got length %d", len(s2))
	}
	PutStringSlice(s2)
}

func TestBufferPoolSizes(t *testing.T) {
	bp := NewBufferPool()

	buf := bp.Get(2048)
	if len(buf) != 2048 {
		t.Errorf("expected length 2048, got %d", len(buf))
	}
	if cap(buf) < 2048 {
		t.Errorf("expected capacity >= 2048, got %d", cap(buf))
	}
	bp.Put(buf)

	// Oversized request falls back to direct allocation
	huge := bp.Get(32 * 1024 * 1024)
	if len(huge) != 32*1024*1024 {
		t.Errorf("expected oversized buffer, got %d", len(huge))
	}
	bp.Put(huge)
}

func TestInternString(t *testing.T) {
	a := InternString("red")
	b := InternString("red")

	if a != b {
		t.Error("expected identical interned strings")
	}

	size, hits, _ := GetInternStats()
	if size == 0 {
		t.Error("expected pre-populated intern pool")
	}
	if hits == 0 {
		t.Error("expected at least one intern hit")
	}
}

func TestInternBytes(t *testing.T) {
	b := InternBytes([]byte("blue"))
	if b != "blue" {
		t.Errorf("expected 'blue', got %q", b)
	}
	if InternString("blue") != b {
		t.Error("expected byte-interned string to match string intern")
	}
}
