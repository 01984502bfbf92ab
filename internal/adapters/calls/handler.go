package calls

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/trebuchet-org/dvote/internal/usecase"
)

// LogHandler accepts every call and logs it. The value transfer itself is
// booked by the treasury; payloads have no further effect.
type LogHandler struct {
	log *slog.Logger
}

// NewLogHandler creates a handler that logs dispatched calls
func NewLogHandler(log *slog.Logger) *LogHandler {
	return &LogHandler{log: log.With("component", "calls")}
}

func (h *LogHandler) Call(ctx context.Context, req usecase.CallRequest) ([]byte, error) {
	h.log.InfoContext(ctx, "dispatching withdrawal",
		"withdrawal", req.WithdrawalID,
		"proposal", req.ProposalID,
		"target", req.Target.Hex(),
		"value", req.Value.Dec(),
		"payload", hexutil.Encode(req.Payload),
	)
	return nil, nil
}

// Recorder remembers every call and answers with a fixed result or error
type Recorder struct {
	mu     sync.Mutex
	calls  []usecase.CallRequest
	Result []byte
	Err    error
}

// NewRecorder creates a recorder that accepts every call
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Call(_ context.Context, req usecase.CallRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	r.calls = append(r.calls, req)
	return r.Result, nil
}

// Calls returns the accepted calls in order
func (r *Recorder) Calls() []usecase.CallRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]usecase.CallRequest, len(r.calls))
	copy(out, r.calls)
	return out
}
