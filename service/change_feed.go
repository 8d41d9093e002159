package service

import (
	"sync"

	"mars3lo-orders/models"
)

// AllTables subscribes to changes of every table
const AllTables = "*"

// ChangeFeed fans row change notifications out to in-process subscribers
type ChangeFeed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	table string
	fn    func(models.Change)
}

// NewChangeFeed creates an empty feed
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[int]subscription)}
}

// Subscribe registers fn for changes of table, or of every table with AllTables.
// The returned function removes the subscription and may be called more than once.
// fn runs on the publisher's goroutine and must not block.
func (f *ChangeFeed) Subscribe(table string, fn func(models.Change)) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{table: table, fn: fn}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers change to every matching subscriber
func (f *ChangeFeed) Publish(change models.Change) {
	f.mu.RLock()
	targets := make([]func(models.Change), 0, len(f.subs))
	for _, s := range f.subs {
		if s.table == AllTables || s.table == change.Table {
			targets = append(targets, s.fn)
		}
	}
	f.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
}

// Subscribers returns the number of active subscriptions
func (f *ChangeFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
