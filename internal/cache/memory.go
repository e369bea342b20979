package cache

import (
	"context"
	"time"
)

const (
	defaultSweepEvery = time.Minute
	defaultMaxEntries = 10000
)

type memoryOp int

const (
	opGet memoryOp = iota
	opSet
	opLen
)

// memoryRequest is the single message type handled by the owner goroutine.
type memoryRequest struct {
	op    memoryOp
	key   string
	value []byte
	ttl   time.Duration
	reply chan memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
	ok      bool
	size    int
}

// Memory is a process-local TTL cache. All map access happens inside one
// goroutine. Expired entries are dropped on read and by a periodic sweep,
// and the map never holds more than maxEntries keys.
type Memory struct {
	requests   chan memoryRequest
	quit       chan struct{}
	now        func() time.Time
	sweepEvery time.Duration
	maxEntries int
}

func NewMemory() *Memory {
	return newMemory(time.Now, defaultSweepEvery, defaultMaxEntries)
}

func newMemory(now func() time.Time, sweepEvery time.Duration, maxEntries int) *Memory {
	m := &Memory{
		requests:   make(chan memoryRequest),
		quit:       make(chan struct{}),
		now:        now,
		sweepEvery: sweepEvery,
		maxEntries: maxEntries,
	}
	go m.loop()
	return m
}

// Close stops the owner goroutine. Safe to call more than once.
func (m *Memory) Close() {
	select {
	case <-m.quit:
		return
	default:
	}
	close(m.quit)
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, ok := m.ask(ctx, memoryRequest{op: opGet, key: key})
	if !ok || !entry.ok {
		return nil, false
	}
	buf := make([]byte, len(entry.data))
	copy(buf, entry.data)
	return buf, true
}

func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	select {
	case <-ctx.Done():
	case <-m.quit:
	case m.requests <- memoryRequest{op: opSet, key: key, value: buf, ttl: ttl}:
	}
}

// Len reports how many keys the map currently holds, expired or not.
func (m *Memory) Len(ctx context.Context) int {
	entry, ok := m.ask(ctx, memoryRequest{op: opLen})
	if !ok {
		return 0
	}
	return entry.size
}

func (m *Memory) ask(ctx context.Context, req memoryRequest) (memoryEntry, bool) {
	req.reply = make(chan memoryEntry, 1)
	select {
	case <-ctx.Done():
		return memoryEntry{}, false
	case <-m.quit:
		return memoryEntry{}, false
	case m.requests <- req:
	}
	select {
	case <-ctx.Done():
		return memoryEntry{}, false
	case <-m.quit:
		return memoryEntry{}, false
	case entry := <-req.reply:
		return entry, true
	}
}

func (m *Memory) loop() {
	store := make(map[string]memoryEntry)
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			sweep(store, m.now())
		case req := <-m.requests:
			now := m.now()
			switch req.op {
			case opSet:
				if _, exists := store[req.key]; !exists && m.maxEntries > 0 && len(store) >= m.maxEntries {
					sweep(store, now)
					if len(store) >= m.maxEntries {
						evictSoonest(store)
					}
				}
				store[req.key] = memoryEntry{data: req.value, expires: now.Add(req.ttl), ok: true}
			case opGet:
				entry, ok := store[req.key]
				if ok && !now.Before(entry.expires) {
					delete(store, req.key)
					ok = false
				}
				if !ok {
					entry = memoryEntry{}
				}
				req.reply <- entry
			case opLen:
				req.reply <- memoryEntry{size: len(store)}
			}
		}
	}
}

func sweep(store map[string]memoryEntry, now time.Time) {
	for key, entry := range store {
		if !now.Before(entry.expires) {
			delete(store, key)
		}
	}
}

// evictSoonest drops the entry closest to expiry.
func evictSoonest(store map[string]memoryEntry) {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for key, entry := range store {
		if !found || entry.expires.Before(soonest) {
			victim, soonest, found = key, entry.expires, true
		}
	}
	if found {
		delete(store, victim)
	}
}
