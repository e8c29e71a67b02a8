// Package server keeps the leaderboard shared by every connected session.
package server

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// Board is the interface clients use to report and read scores.
type Board interface {
	Register(username string) *Handle
	Unregister(id int)
	Submit(id int, score int)
	Top(n int) []Entry
}

// Leaderboard records the best score of every player that registered.
// It is safe for concurrent use.
type Leaderboard struct {
	mu      sync.RWMutex
	clients map[int]*Handle
	best    map[string]*Entry
	nextID  int
	seq     uint64
}

// Compile-time check that Leaderboard implements Board.
var _ Board = (*Leaderboard)(nil)

// Handle is a client's registration.
type Handle struct {
	ID       int
	Username string
	EventsCh chan Event // Events sent to the client
}

// Event is sent from the board to a client.
type Event struct {
	Type EventType
}

// EventType identifies the type of client event.
type EventType int

const (
	EventServerShutdown EventType = iota
)

// Entry is one line of the leaderboard.
type Entry struct {
	Username string
	Score    int
	seq      uint64 // Order in which the score was reached
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		clients: make(map[int]*Handle),
		best:    make(map[string]*Entry),
		nextID:  1,
	}
}

// Register adds a client with the given username and returns its handle.
func (b *Leaderboard) Register(username string) *Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := &Handle{
		ID:       b.nextID,
		Username: username,
		EventsCh: make(chan Event, 4),
	}
	b.nextID++
	b.clients[h.ID] = h
	return h
}

// Unregister removes a client. Its scores stay on the board.
func (b *Leaderboard) Unregister(id int) {
	b.mu.Lock()
	delete(b.clients, id)
	b.mu.Unlock()
}

// Submit records score for the client if it beats the player's best.
// Unknown ids are ignored.
func (b *Leaderboard) Submit(id int, score int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.clients[id]
	if !ok || score <= 0 {
		return
	}
	e, ok := b.best[h.Username]
	if ok && e.Score >= score {
		return
	}
	b.seq++
	if !ok {
		e = &Entry{Username: h.Username}
		b.best[h.Username] = e
	}
	e.Score = score
	e.seq = b.seq
}

// Top returns up to n entries, best first. Equal scores are ordered by who
// reached them first, then by name.
func (b *Leaderboard) Top(n int) []Entry {
	b.mu.RLock()
	entries := make([]Entry, 0, len(b.best))
	for _, e := range b.best {
		entries = append(entries, *e)
	}
	b.mu.RUnlock()

	slices.SortFunc(entries, func(x, y Entry) int {
		if x.Score != y.Score {
			return y.Score - x.Score
		}
		if x.seq != y.seq {
			if x.seq < y.seq {
				return -1
			}
			return 1
		}
		return strings.Compare(x.Username, y.Username)
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Clients returns the number of registered clients.
func (b *Leaderboard) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Shutdown notifies all registered clients and waits for them to
// unregister (up to the given timeout).
func (b *Leaderboard) Shutdown(timeout time.Duration) {
	b.mu.RLock()
	for _, h := range b.clients {
		select {
		case h.EventsCh <- Event{Type: EventServerShutdown}:
		default:
		}
	}
	b.mu.RUnlock()

	deadline := time.After(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if b.Clients() == 0 {
			return
		}
		select {
		case <-deadline:
			return
		case <-ticker.C:
		}
	}
}
