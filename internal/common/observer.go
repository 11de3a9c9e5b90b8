package common

import (
	"log"
	"sync"
)

// ObserverHub is the shared Subject implementation. Observers are keyed by
// name, so subscribing the same observer twice replaces the old entry.
type ObserverHub struct {
	mu        sync.RWMutex
	observers map[string]Observer
}

func NewObserverHub() *ObserverHub {
	return &ObserverHub{
		observers: make(map[string]Observer),
	}
}

func (h *ObserverHub) Subscribe(observer Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers[observer.Name()] = observer
}

func (h *ObserverHub) Unsubscribe(observer Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.observers, observer.Name())
}

// Notify delivers the event to every observer. Observer errors are logged
// and never stop delivery to the rest.
func (h *ObserverHub) Notify(event ChatEvent) {
	h.mu.RLock()
	observers := make([]Observer, 0, len(h.observers))
	for _, obs := range h.observers {
		observers = append(observers, obs)
	}
	h.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(event); err != nil {
			log.Printf("observer %s failed: %v", observer.Name(), err)
		}
	}
}
