package services

import (
	"sync"

	"checkout-service/internal/domain"
)

const feedBuffer = 16

// OrderFeed fans order changes out to live per-user subscribers.
type OrderFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan domain.Order
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{subs: make(map[string]map[int]chan domain.Order)}
}

// Subscribe returns a channel of the user's order changes and a release
// func. The channel is closed by release.
func (f *OrderFeed) Subscribe(userID string) (<-chan domain.Order, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan domain.Order, feedBuffer)
	if f.subs[userID] == nil {
		f.subs[userID] = make(map[int]chan domain.Order)
	}
	f.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[userID], id)
			if len(f.subs[userID]) == 0 {
				delete(f.subs, userID)
			}
			close(ch)
		})
	}
}

// Notify never blocks; a subscriber whose buffer is full misses the update.
func (f *OrderFeed) Notify(o domain.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[o.UserID] {
		select {
		case ch <- o:
		default:
		}
	}
}

func (f *OrderFeed) Subscribers(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[userID])
}
