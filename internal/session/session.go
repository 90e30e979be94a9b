// Package session tracks what one browser has uploaded and asked.
package session

import (
	"errors"
	"sync"

	"document-qa/internal/models"
)

var (
	ErrNoFiles       = errors.New("please upload files first")
	ErrAnswerPending = errors.New("an answer is already being generated")
	ErrStale         = errors.New("session changed while the answer was pending")
)

type State int

const (
	Idle State = iota
	FilesLoaded
	AnswerPending
	AnswerReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FilesLoaded:
		return "files_loaded"
	case AnswerPending:
		return "answer_pending"
	case AnswerReady:
		return "answer_ready"
	}
	return "unknown"
}

// Session is the state machine behind one browser session. T is the
// artifact built from the uploads (an index, a merged PDF).
type Session[T any] struct {
	ID string

	mu       sync.Mutex
	state    State
	files    []string
	artifact T
	loaded   bool
	gen      uint64
	question string
	answer   string
	err      error
	config   models.LLMConfig
	release  func(T)
}

func newSession[T any](id string, cfg models.LLMConfig, release func(T)) *Session[T] {
	return &Session[T]{ID: id, config: cfg, release: release}
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	State    State
	Files    []string
	Question string
	Answer   string
	Err      error
	Config   models.LLMConfig
}

func (s *Session[T]) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:    s.state,
		Files:    append([]string(nil), s.files...),
		Question: s.question,
		Answer:   s.answer,
		Err:      s.err,
		Config:   s.config,
	}
}

func (s *Session[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Artifact returns the loaded artifact, if any.
func (s *Session[T]) Artifact() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact, s.loaded
}

// Config returns the sampling parameters last chosen in this session.
func (s *Session[T]) Config() models.LLMConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Session[T]) SetConfig(cfg models.LLMConfig) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}

// Load replaces the files and artifact from any state. The previous
// artifact is released and any pending answer is discarded.
func (s *Session[T]) Load(files []string, artifact T) {
	s.mu.Lock()
	old, hadOld := s.artifact, s.loaded
	s.files = append([]string(nil), files...)
	s.artifact = artifact
	s.loaded = true
	s.gen++
	s.state = FilesLoaded
	s.question, s.answer, s.err = "", "", nil
	s.mu.Unlock()

	if hadOld {
		s.releaseArtifact(old)
	}
}

// Fail records an error without leaving the current state.
func (s *Session[T]) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Ticket identifies one pending question.
type Ticket struct {
	gen uint64
}

// BeginAsk moves the session to AnswerPending and returns the loaded
// artifact to answer from.
func (s *Session[T]) BeginAsk(question string) (T, Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	switch s.state {
	case Idle:
		return zero, Ticket{}, ErrNoFiles
	case AnswerPending:
		return zero, Ticket{}, ErrAnswerPending
	}
	s.gen++
	s.state = AnswerPending
	s.question = question
	s.answer, s.err = "", nil
	return s.artifact, Ticket{gen: s.gen}, nil
}

// Finish completes the question identified by t. On error the session
// returns to FilesLoaded with the error recorded. A ticket outdated by a
// Load or Reset is rejected with ErrStale.
func (s *Session[T]) Finish(t Ticket, answer string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != AnswerPending || t.gen != s.gen {
		return ErrStale
	}
	if err != nil {
		s.state = FilesLoaded
		s.err = err
		return nil
	}
	s.state = AnswerReady
	s.answer = answer
	return nil
}

// Reset drops everything and returns to Idle.
func (s *Session[T]) Reset() {
	s.mu.Lock()
	old, hadOld := s.artifact, s.loaded
	var zero T
	s.artifact = zero
	s.loaded = false
	s.files = nil
	s.gen++
	s.state = Idle
	s.question, s.answer, s.err = "", "", nil
	s.mu.Unlock()

	if hadOld {
		s.releaseArtifact(old)
	}
}

func (s *Session[T]) releaseArtifact(a T) {
	if s.release != nil {
		s.release(a)
	}
}
