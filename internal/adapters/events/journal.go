package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/trebuchet-org/dvote/internal/domain"
	"github.com/trebuchet-org/dvote/internal/usecase"
)

// JournalFile is the name of the event journal inside the data directory
const JournalFile = "events.jsonl"

// JournalSink appends events as JSON lines
type JournalSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewJournalSink creates a journal at dataDir/events.jsonl
func NewJournalSink(dataDir string) *JournalSink {
	return &JournalSink{
		path: filepath.Join(dataDir, JournalFile),
		now:  time.Now,
	}
}

// Path returns the journal location
func (j *JournalSink) Path() string {
	return j.path
}

func (j *JournalSink) Publish(ctx context.Context, events ...domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	at := j.now()
	for _, e := range events {
		rec, err := NewRecord(e, at)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to append %s: %w", e.EventName(), err)
		}
	}
	return w.Flush()
}

// Recent returns the last limit journal entries, oldest first
func (j *JournalSink) Recent(_ context.Context, limit int) ([]usecase.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	records, err := ReadJournal(j.path, limit)
	if err != nil {
		return nil, err
	}
	out := make([]usecase.JournalEntry, len(records))
	for i, r := range records {
		out[i] = usecase.JournalEntry(r)
	}
	return out, nil
}

// ReadJournal returns the last limit records of the journal at path, oldest
// first. A limit of zero returns everything; a missing journal is empty.
func ReadJournal(path string, limit int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		records = append(records, rec)
		if limit > 0 && len(records) > limit {
			records = records[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return records, nil
}
