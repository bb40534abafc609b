package events

import (
	"sync"
)

// InMemoryEventStore keeps per-record event streams in memory and delivers
// them to subscribers synchronously, in append order. Synchronous delivery
// matters here: the engine's last-write-wins guarantee extends to the UI
// only if field-changed events arrive in the order they were committed.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	allEvents   []Event

	// OnHandlerError, when set, receives handler failures. Handler errors
	// never fail the append.
	OnHandlerError func(event Event, err error)
}

// NewInMemoryEventStore creates an empty store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent versions the event within its record stream and notifies
// subscribers before returning.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()

	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], versioned)
	s.allEvents = append(s.allEvents, versioned)

	handlers := append([]EventHandler(nil), s.subscribers[versioned.EventType]...)
	s.mutex.Unlock()

	for _, handler := range handlers {
		if !handler.CanHandle(versioned.EventType) {
			continue
		}
		if err := handler.Handle(versioned); err != nil && s.OnHandlerError != nil {
			s.OnHandlerError(versioned, err)
		}
	}

	return nil
}

// ReadEvents returns a record's events from the given version onward.
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stream, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(stream) {
		return []Event{}, nil
	}

	return stream[fromVersion-1:], nil
}

// ReadAllEvents returns every stored event from the given position onward.
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	return s.allEvents[fromPosition:], nil
}

// Subscribe registers a handler for the given event types.
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

// Unsubscribe removes a handler from every event type.
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}

	return nil
}
