// Package conversation owns the chat transcript: optimistic updates while a
// question is outstanding, reconciliation with the answering service, and
// persistence of the resolved history.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ragchat/internal/answer"
	"ragchat/internal/logger"
	"ragchat/internal/storage"
)

const (
	// FailureNotice replaces the pending placeholder when a request fails.
	FailureNotice = "Request failed."
	// NoAnswer is shown when the service replies without an answer.
	NoAnswer = "(no answer)"

	DefaultKey = "rag_chat_messages"
)

// Answerer submits a question to the answering service
type Answerer interface {
	Ask(ctx context.Context, question string) (*answer.Response, error)
}

// State is a read-only snapshot of the conversation
type State struct {
	Messages  []Message
	Busy      bool
	LastError string
}

// Store is the only writer of the conversation. Mutations go through
// Initialize, Submit and Clear; everything else reads snapshots.
type Store struct {
	service  Answerer
	kv       storage.Store
	key      string
	onChange func(State)

	mu        sync.Mutex
	messages  []Message
	busy      bool
	lastError string
	// token identifies the outstanding request. Clear rotates it so that a
	// response arriving afterwards is dropped.
	token string
}

// Option configures a Store
type Option func(*Store)

// WithKey sets the storage key of the persisted transcript
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithOnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that caused the change, outside the store lock.
func WithOnChange(fn func(State)) Option {
	return func(s *Store) { s.onChange = fn }
}

// New creates a store answering through service and persisting to kv.
// Call Initialize to load the saved transcript.
func New(service Answerer, kv storage.Store, opts ...Option) *Store {
	s := &Store{
		service: service,
		kv:      kv,
		key:     DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted transcript. Missing or malformed data
// leaves the conversation empty; only storage I/O failures are returned, and
// the store is usable either way.
func (s *Store) Initialize() error {
	raw, ok, err := s.kv.Get(s.key)

	s.mu.Lock()
	s.messages = nil
	s.lastError = ""
	switch {
	case err != nil:
		err = fmt.Errorf("failed to read history: %w", err)
		logger.Warn("%v", err)
	case ok:
		s.messages = decodeHistory(raw)
	}
	s.mu.Unlock()

	s.notify()
	return err
}

// Submit sends question to the answering service. It returns false without
// touching the conversation when the trimmed question is empty or another
// submission is still outstanding. Otherwise it blocks until the exchange
// resolves; Snapshot and Clear remain available from other goroutines in the
// meantime.
func (s *Store) Submit(ctx context.Context, question string) bool {
	q := strings.TrimSpace(question)
	if q == "" {
		return false
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		logger.Debug("submit rejected: request already in flight")
		return false
	}
	s.lastError = ""
	s.busy = true
	token := uuid.NewString()
	s.token = token
	s.messages = append(s.messages, NewUserMessage(q), NewPendingMessage())
	s.mu.Unlock()
	s.notify()

	logger.Info("submitting question (%d chars) request=%s", len(q), token)
	resp, err := s.service.Ask(ctx, q)

	s.mu.Lock()
	if s.token != token {
		logger.Info("discarding response for cleared conversation request=%s", token)
	} else {
		s.dropPending()
		if err != nil {
			logger.Warn("request %s failed: %v", token, err)
			s.lastError = errorDetail(err)
			s.messages = append(s.messages, NewAssistantMessage(FailureNotice, nil))
		} else {
			s.messages = append(s.messages, resolve(resp))
		}
		s.persistLocked()
	}
	s.busy = false
	s.mu.Unlock()
	s.notify()

	return true
}

// Clear empties the conversation and removes the persisted transcript. An
// outstanding request is not cancelled, but its response will be discarded.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.messages = nil
	s.lastError = ""
	s.token = uuid.NewString()
	err := s.kv.Delete(s.key)
	s.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("failed to remove history: %w", err)
		logger.Warn("%v", err)
	}
	s.notify()
	return err
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{
		Messages:  cloneMessages(s.messages),
		Busy:      s.busy,
		LastError: s.lastError,
	}
}

func (s *Store) notify() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}

// dropPending removes the trailing placeholder, if any
func (s *Store) dropPending() {
	if n := len(s.messages); n > 0 && s.messages[n-1].Pending {
		s.messages = s.messages[:n-1]
	}
}

// persistLocked writes the resolved transcript (must be called with lock
// held). Failures are logged and surfaced through lastError, never fatal.
func (s *Store) persistLocked() {
	data, err := encodeHistory(s.messages)
	if err == nil {
		err = s.kv.Put(s.key, data)
	}
	if err != nil {
		logger.Error("failed to persist history: %v", err)
		if s.lastError == "" {
			s.lastError = fmt.Sprintf("failed to save history: %v", err)
		}
	}
}

func resolve(resp *answer.Response) Message {
	content := NoAnswer
	if resp != nil && resp.Answer != nil && strings.TrimSpace(*resp.Answer) != "" {
		content = *resp.Answer
	}
	var sources []Citation
	if resp != nil {
		sources = NormalizeSources(resp.Sources)
	}
	return NewAssistantMessage(content, sources)
}

func errorDetail(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FailureNotice
}

func encodeHistory(msgs []Message) ([]byte, error) {
	resolved := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.Pending {
			resolved = append(resolved, m)
		}
	}
	return json.Marshal(resolved)
}

// decodeHistory parses a persisted transcript. Malformed data is treated as
// absent; pending placeholders are dropped since no request survives a
// restart.
func decodeHistory(raw []byte) []Message {
	var msgs []Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		logger.Warn("discarding malformed history: %v", err)
		return nil
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.Pending {
			continue
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
