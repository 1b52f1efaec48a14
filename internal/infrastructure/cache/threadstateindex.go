package cache

import (
	"context"
	"fmt"
	"sync"

	"warden/internal/domain/modmail"
	"warden/internal/shared/logger"
)

// ThreadStateIndex is the in-memory mirror of which threads are currently
// open modmail threads. The event-dispatch layer consults it to decide
// whether a thread message should be considered for relay at all, without
// a database round trip per message.
//
// The persistent store remains the source of truth; the index is rebuilt
// from it at startup and mutated after every successful lifecycle write.
type ThreadStateIndex struct {
	mu      sync.RWMutex
	threads map[string]struct{}

	tickets modmail.TicketRepository
	log     logger.Interface
}

func NewThreadStateIndex(tickets modmail.TicketRepository, log logger.Interface) *ThreadStateIndex {
	return &ThreadStateIndex{
		threads: make(map[string]struct{}),
		tickets: tickets,
		log:     log.Named("thread_state_index"),
	}
}

// Hydrate rebuilds the index from all open tickets with an active thread.
func (i *ThreadStateIndex) Hydrate(ctx context.Context) error {
	refs, err := i.tickets.ListOpenThreadRefs(ctx)
	if err != nil {
		return fmt.Errorf("failed to hydrate thread state index: %w", err)
	}

	i.mu.Lock()
	i.threads = make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		i.threads[ref] = struct{}{}
	}
	i.mu.Unlock()

	i.log.Infow("thread state index hydrated", "open_threads", len(refs))
	return nil
}

func (i *ThreadStateIndex) IsOpenThread(threadRef string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.threads[threadRef]
	return ok
}

func (i *ThreadStateIndex) Add(threadRef string) {
	if threadRef == "" {
		return
	}
	i.mu.Lock()
	i.threads[threadRef] = struct{}{}
	i.mu.Unlock()
}

func (i *ThreadStateIndex) Remove(threadRef string) {
	i.mu.Lock()
	delete(i.threads, threadRef)
	i.mu.Unlock()
}

func (i *ThreadStateIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.threads)
}
