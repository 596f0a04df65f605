package pool

import (
	"sync"
	"sync/atomic"
)

// StringInternPool provides string interning to reduce memory allocations
// for frequently repeated strings. Low-cardinality text columns produce the
// same handful of values millions of times; interning keeps one copy alive.
//
// Interning only deduplicates storage. Stable integer codes for categorical
// columns are owned by dictionary.Dictionary, never by this pool.
type StringInternPool struct {
	mu      sync.RWMutex
	strings map[string]string
	maxSize int
	size    int64
	hits    int64
	misses  int64
}

// Global string intern pool with common column names pre-populated
var globalStringInternPool = &StringInternPool{
	strings: make(map[string]string, 1024),
	maxSize: 10000, // Limit to prevent unbounded growth
}

func init() {
	internCommonNames()
}

// internCommonNames pre-interns column names that show up in most log and
// event feeds.
func internCommonNames() {
	commonNames := []string{
		// Positional column names assigned by readers
		"col_0", "col_1", "col_2", "col_3", "col_4",
		"col_5", "col_6", "col_7", "col_8", "col_9",

		// Common log/event fields
		"ts", "timestamp", "level", "message", "status",
		"src_addr", "dst_addr", "src_port", "dst_port", "proto",
		"method", "uri", "host", "user_agent", "referer",

		// Common tabular fields
		"id", "name", "value", "type", "count",
		"created_at", "updated_at", "deleted_at",

		// Common categorical values
		"true", "false", "null", "none", "unknown",
		"GET", "POST", "PUT", "DELETE",
		"tcp", "udp", "icmp",
	}

	for _, name := range commonNames {
		globalStringInternPool.Intern(name)
	}
}

// Intern returns an interned version of the string
func (p *StringInternPool) Intern(s string) string {
	// Fast path: check if already interned
	p.mu.RLock()
	if interned, ok := p.strings[s]; ok {
		p.mu.RUnlock()
		atomic.AddInt64(&p.hits, 1)
		return interned
	}
	p.mu.RUnlock()

	// Slow path: add to intern pool
	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring write lock
	if interned, ok := p.strings[s]; ok {
		atomic.AddInt64(&p.hits, 1)
		return interned
	}

	// Check size limit
	currentSize := atomic.LoadInt64(&p.size)
	if currentSize >= int64(p.maxSize) {
		// Return original string if pool is full
		atomic.AddInt64(&p.misses, 1)
		return s
	}

	p.strings[s] = s
	atomic.AddInt64(&p.size, 1)
	atomic.AddInt64(&p.misses, 1)
	return s
}

// InternBytes interns a byte slice as a string
func (p *StringInternPool) InternBytes(b []byte) string {
	return p.Intern(string(b))
}

// Stats returns intern pool statistics
func (p *StringInternPool) Stats() (size, hits, misses int64) {
	return atomic.LoadInt64(&p.size),
		atomic.LoadInt64(&p.hits),
		atomic.LoadInt64(&p.misses)
}

// Clear clears the intern pool (useful for tests)
func (p *StringInternPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.strings = make(map[string]string, 1024)
	atomic.StoreInt64(&p.size, 0)
	atomic.StoreInt64(&p.hits, 0)
	atomic.StoreInt64(&p.misses, 0)

	internCommonNames()
}

// InternString interns a string using the global pool
func InternString(s string) string {
	return globalStringInternPool.Intern(s)
}

// InternBytes interns a byte slice as a string using the global pool
func InternBytes(b []byte) string {
	return globalStringInternPool.InternBytes(b)
}

// GetInternStats returns global intern pool statistics
func GetInternStats() (size, hits, misses int64) {
	return globalStringInternPool.Stats()
}
