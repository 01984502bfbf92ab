package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trebuchet-org/dvote/internal/usecase"
)

func TestSpinnerProgressPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewSpinnerProgress(&buf, false)

	p.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "verifying", Current: 1, Total: 2, Message: "Verifying 0xabc", Spinner: true})
	p.OnProgress(context.Background(), usecase.ProgressEvent{Stage: "complete", Current: 2, Total: 2, Message: "Verification complete"})
	p.Error("boom")

	out := buf.String()
	assert.Contains(t, out, "[1/2] Verifying 0xabc")
	assert.Contains(t, out, "Verification complete in")
	assert.Contains(t, out, "boom")
}
