// Package session provides run transcript management and persistence.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Balogunolalere/Thoughbot/internal/plan"
)

// Status constants for runs.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Event types for the run transcript.
const (
	EventRunStart             = "run_start"
	EventThought              = "thought"
	EventPlanSnapshot         = "plan_snapshot"
	EventVerificationInserted = "verification_inserted"
	EventFailureReopened      = "failure_reopened"
	EventResearch             = "research"
	EventRunEnd               = "run_end"
)

// Session is the transcript of one reasoning run.
type Session struct {
	ID        string    `json:"id"`
	Problem   string    `json:"problem"`
	Status    string    `json:"status"`
	Answer    string    `json:"answer,omitempty"`
	Error     string    `json:"error,omitempty"`
	Events    []Event   `json:"events"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	seqCounter uint64
	mu         sync.Mutex
}

// Event is one entry in the run transcript. This is the forensic record
// the render and watch commands read from.
type Event struct {
	SeqID     uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Thought  int             `json:"thought,omitempty"`  // reasoning step number
	Content  string          `json:"content,omitempty"`  // thinking text, failure detail
	Action   string          `json:"action,omitempty"`   // routing action chosen
	Plan     []plan.Snapshot `json:"plan,omitempty"`     // tree state after the step
	Nodes    []int           `json:"nodes,omitempty"`    // affected node ids
	Query    string          `json:"query,omitempty"`    // research query
	Error    string          `json:"error,omitempty"`
	Duration int64           `json:"duration_ms,omitempty"`
}

// NewSession creates a running session for a problem.
func NewSession(problem string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Problem:   problem,
		Status:    StatusRunning,
		Events:    []Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddEvent appends an event with automatic sequencing and returns its
// sequence id.
func (s *Session) AddEvent(event Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqCounter++
	event.SeqID = s.seqCounter
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.Events = append(s.Events, event)
	s.UpdatedAt = time.Now()
	return event.SeqID
}

// Complete marks the session finished with its answer.
func (s *Session) Complete(answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusComplete
	s.Answer = answer
	s.UpdatedAt = time.Now()
}

// Fail marks the session failed.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFailed
	if err != nil {
		s.Error = err.Error()
	}
	s.UpdatedAt = time.Now()
}

// Store is the interface for session persistence.
type Store interface {
	Save(sess *Session) error
	Load(id string) (*Session, error)
}

// JSONL record types for the streaming transcript format.
const (
	RecordTypeHeader = "header"
	RecordTypeEvent  = "event"
	RecordTypeFooter = "footer"
)

// JSONLRecord wraps transcript lines with type discrimination.
type JSONLRecord struct {
	RecordType string `json:"_type"`

	// Header fields
	ID        string    `json:"id,omitempty"`
	Problem   string    `json:"problem,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Event fields
	*Event `json:",omitempty"`

	// Footer fields
	Status    string    `json:"status,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// FileStore implements Store on the filesystem, one JSONL file per run.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-based store, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the transcript path for a run id.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.dir, id+".jsonl")
}

// Save persists a session as a JSONL transcript: header line, one line
// per event, footer line.
func (s *FileStore) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	f, err := os.Create(s.Path(sess.ID))
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer f.Close()

	header := JSONLRecord{
		RecordType: RecordTypeHeader,
		ID:         sess.ID,
		Problem:    sess.Problem,
		CreatedAt:  sess.CreatedAt,
	}
	if err := writeLine(f, header); err != nil {
		return err
	}

	for i := range sess.Events {
		record := JSONLRecord{
			RecordType: RecordTypeEvent,
			Event:      &sess.Events[i],
		}
		if err := writeLine(f, record); err != nil {
			return err
		}
	}

	footer := JSONLRecord{
		RecordType: RecordTypeFooter,
		Status:     sess.Status,
		Answer:     sess.Answer,
		Error:      sess.Error,
		UpdatedAt:  sess.UpdatedAt,
	}
	return writeLine(f, footer)
}

func writeLine(f *os.File, record JSONLRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	_, err = f.WriteString("\n")
	return err
}

// Load reads a session transcript from disk.
func (s *FileStore) Load(id string) (*Session, error) {
	f, err := os.Open(s.Path(id))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTranscript(f)
}

// ReadTranscript parses a JSONL transcript stream. A transcript without
// a footer (a run still in flight, or one that crashed) still yields the
// header and events read so far.
func ReadTranscript(r io.Reader) (*Session, error) {
	sess := &Session{Events: []Event{}}

	// bufio.Reader rather than Scanner; plan snapshots can exceed the
	// default scanner line limit.
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading transcript: %w", err)
		}
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			if parseErr := parseLine(trimmed, sess); parseErr != nil {
				return nil, parseErr
			}
		}
		if err == io.EOF {
			break
		}
	}

	if len(sess.Events) > 0 {
		sess.seqCounter = sess.Events[len(sess.Events)-1].SeqID
	}
	return sess, nil
}

func parseLine(line []byte, sess *Session) error {
	var record JSONLRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return fmt.Errorf("failed to parse transcript line: %w", err)
	}

	switch record.RecordType {
	case RecordTypeHeader:
		sess.ID = record.ID
		sess.Problem = record.Problem
		sess.CreatedAt = record.CreatedAt
	case RecordTypeEvent:
		if record.Event != nil {
			sess.Events = append(sess.Events, *record.Event)
		}
	case RecordTypeFooter:
		sess.Status = record.Status
		sess.Answer = record.Answer
		sess.Error = record.Error
		sess.UpdatedAt = record.UpdatedAt
	}
	return nil
}
