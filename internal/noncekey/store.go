// Package noncekey hands out nonce keys per (address, chain) pair so that
// several transactions from one account can be in flight on separate nonce
// lanes without colliding.
package noncekey

import (
	"strconv"
	"strings"
	"sync"
)

// CacheKey identifies an (address, chain ID) pair inside a Store.
type CacheKey string

// Params selects the entry an operation works on. Address is a hex string;
// it is not validated here.
type Params struct {
	Address string
	ChainID uint64
}

// Entry is the per-pair state. Its fields are only touched while holding the
// owning Store's lock, so read them through Counter and ResetScheduled.
type Entry struct {
	store          *Store
	counter        uint64
	resetScheduled bool
}

// Counter returns the next nonce key NonceKey would hand out.
func (e *Entry) Counter() uint64 {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.counter
}

// ResetScheduled reports whether a deferred reset has already been queued.
func (e *Entry) ResetScheduled() bool {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.resetScheduled
}

// Store maps CacheKeys to entries. Entries are created on first use and are
// never removed. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	entries map[CacheKey]*Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[CacheKey]*Entry)}
}

// CacheKeyFor derives the key for an address and chain ID. Hex addresses
// differing only in letter case map to the same key.
func CacheKeyFor(address string, chainID uint64) CacheKey {
	return CacheKey(strings.ToLower(address) + ":" + strconv.FormatUint(chainID, 10))
}

// Entry returns the entry for p, inserting a zeroed one if none exists.
// Repeated calls return the same *Entry.
func (s *Store) Entry(p Params) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entry(p)
}

// Reset sets the entry's counter back to zero and clears its reset flag.
func (s *Store) Reset(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(p)
	e.counter = 0
	e.resetScheduled = false
}

// NonceKey returns the entry's current counter and advances it by one.
// For a fixed pair the sequence is 0, 1, 2, ... until the next Reset.
func (s *Store) NonceKey(p Params) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(p)
	key := e.counter
	e.counter++
	return key
}

// MarkResetScheduled flags the entry as having a reset queued. It returns
// false when the flag was already set, in which case the caller must not
// queue another reset.
func (s *Store) MarkResetScheduled(p Params) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(p)
	if e.resetScheduled {
		return false
	}
	e.resetScheduled = true
	return true
}

// Len returns the number of entries created so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// entry must be called with s.mu held.
func (s *Store) entry(p Params) *Entry {
	k := CacheKeyFor(p.Address, p.ChainID)
	e, ok := s.entries[k]
	if !ok {
		e = &Entry{store: s}
		s.entries[k] = e
	}
	return e
}
