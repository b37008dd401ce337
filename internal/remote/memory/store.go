// Package memory holds an in-memory remote.Store used by tests and local
// development mode.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

type subscriber struct {
	path     string
	onChange func(path string, value json.RawMessage)
}

type store struct {
	mu          sync.RWMutex
	values      map[string]json.RawMessage
	subscribers map[int]subscriber
	nextSub     int
}

func New() *store {
	return &store{
		values:      map[string]json.RawMessage{},
		subscribers: map[int]subscriber{},
	}
}

// Get returns the exact value at path, or, when path names a collection of
// child values, the children assembled into one object keyed by the path
// remainder. This mirrors how realtime-database backends answer subtree
// reads.
func (s *store) Get(ctx context.Context, path string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if value, ok := s.values[path]; ok {
		return value, true, nil
	}

	children := map[string]json.RawMessage{}
	for k, v := range s.values {
		if strings.HasPrefix(k, path+"/") {
			children[k[len(path)+1:]] = v
		}
	}
	if len(children) == 0 {
		return nil, false, nil
	}

	data, err := json.Marshal(children)
	if err != nil {
		return nil, false, fmt.Errorf("assembling subtree at %s: %w", path, err)
	}
	return data, true, nil
}

func (s *store) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value for %s: %w", path, err)
	}

	s.mu.Lock()
	s.values[path] = data
	subs := s.watchersOf(path)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.onChange(path, data)
	}
	return nil
}

func (s *store) Update(ctx context.Context, path string, partial map[string]any) error {
	s.mu.Lock()

	merged := map[string]any{}
	if existing, ok := s.values[path]; ok {
		if err := json.Unmarshal(existing, &merged); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("decoding value at %s: %w", path, err)
		}
	}
	for k, v := range partial {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshalling value for %s: %w", path, err)
	}
	s.values[path] = data
	subs := s.watchersOf(path)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.onChange(path, data)
	}
	return nil
}

func (s *store) Subscribe(path string, onChange func(path string, value json.RawMessage)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = subscriber{path: path, onChange: onChange}

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// watchersOf must be called with the lock held.
func (s *store) watchersOf(path string) []subscriber {
	matched := []subscriber{}
	for _, sub := range s.subscribers {
		if path == sub.path || strings.HasPrefix(path, sub.path+"/") {
			matched = append(matched, sub)
		}
	}
	return matched
}
