package events

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/trebuchet-org/dvote/internal/domain"
)

// Record is the serialized envelope of a published event
type Record struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Summary    string          `json:"summary"`
	RecordedAt time.Time       `json:"recordedAt"`
	Data       json.RawMessage `json:"data"`
}

// NewRecord wraps e in an envelope with a fresh id.
func NewRecord(e domain.Event, at time.Time) (Record, error) {
	data, err := marshalEvent(e)
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal %s: %w", e.EventName(), err)
	}
	return Record{
		ID:         uuid.NewString(),
		Name:       e.EventName(),
		Summary:    e.String(),
		RecordedAt: at.UTC(),
		Data:       data,
	}, nil
}

// marshalEvent encodes e through a pointer so amount fields use their
// pointer-receiver decimal encoding.
func marshalEvent(e domain.Event) ([]byte, error) {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Pointer {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	}
	return json.Marshal(v.Interface())
}
