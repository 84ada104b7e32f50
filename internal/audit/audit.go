// Package audit records privileged actions and their rejections to the
// append-only audit log and, when a broker is configured, publishes each
// entry as an event. Recording is best-effort: a failed audit write is
// logged but never fails the request that triggered it.
package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/mealcycle/apiserver/internal/mq"
	"github.com/mealcycle/apiserver/types"
	"github.com/rs/zerolog"
)

// EventsChannel is the broker channel audit events are published to.
const EventsChannel = "mealcycle.audit"

// Repository defines the persistence operations the recorder needs.
type Repository interface {
	Insert(ctx context.Context, entry types.AuditEntry) (types.AuditEntry, error)
}

// Recorder writes audit entries and publishes them as broker events.
type Recorder struct {
	repo Repository
	mq   *mq.MQ
	log  zerolog.Logger
}

// NewRecorder constructs a Recorder. broker may be nil, in which case
// event publication is skipped.
func NewRecorder(repo Repository, broker *mq.MQ, log zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, mq: broker, log: log}
}

// Record persists the entry and publishes it. The entry's EventID is
// assigned here.
func (r *Recorder) Record(ctx context.Context, entry types.AuditEntry) {
	entry.EventID = uuid.NewString()

	saved, err := r.repo.Insert(ctx, entry)
	if err != nil {
		r.log.Error().Err(err).
			Str("action", entry.Action).
			Str("outcome", entry.Outcome).
			Msg("audit insert failed")
		return
	}

	if r.mq == nil {
		return
	}
	payload, err := json.Marshal(saved)
	if err != nil {
		r.log.Error().Err(err).Str("event_id", saved.EventID).Msg("audit marshal failed")
		return
	}
	attrs := map[string]string{
		"action":  saved.Action,
		"outcome": saved.Outcome,
	}
	if _, err := r.mq.Publish(ctx, EventsChannel, payload, attrs); err != nil {
		r.log.Error().Err(err).Str("event_id", saved.EventID).Msg("audit publish failed")
	}
}

// Success records a successful privileged action.
func (r *Recorder) Success(ctx context.Context, actorID *int, action, resource, resourceID, detail string) {
	r.Record(ctx, types.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    types.AuditOutcomeSuccess,
		Detail:     detail,
	})
}

// Reject records a rejected action with the distinguishing reason code.
func (r *Recorder) Reject(ctx context.Context, actorID *int, action, resource, resourceID, outcome, detail string) {
	r.Record(ctx, types.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Outcome:    outcome,
		Detail:     detail,
	})
}
