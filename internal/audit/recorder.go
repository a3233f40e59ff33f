package audit

import (
	"context"
	"time"

	"github.com/ashgrove-labs/hearth-core/internal/auth"
	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// writeTimeout bounds each audit insert so a wedged database cannot stall
// the auth path.
const writeTimeout = 5 * time.Second

// Recorder subscribes to auth events and persists each one as an audit
// entry. A failed write is logged and dropped; the trail is best-effort.
type Recorder struct {
	repo   Repository
	logger *logging.Logger
}

// NewRecorder creates a recorder over an audit repository.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Attach subscribes the recorder to an auth service's event stream.
func (r *Recorder) Attach(svc *auth.Service) {
	svc.Subscribe(r.Record)
}

// Record persists one auth event.
func (r *Recorder) Record(ev auth.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	entry := &Entry{
		Event:     string(ev.Kind),
		Username:  ev.Username,
		Details:   ev.Details,
		CreatedAt: ev.At.UTC(),
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Error("writing audit entry", "event", string(ev.Kind), "error", err)
	}
}
