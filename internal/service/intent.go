package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"netdrift/internal/canonical"
	"netdrift/internal/domain"
	"netdrift/internal/queue"
	"netdrift/internal/repository"
)

// IntentService implements intent lifecycle and discovery dispatch.
type IntentService struct {
	intents repository.Intents
	diffs   repository.Diffs
	queue   *queue.Queue
}

// NewIntentService wires an intent service against its repositories and the
// job queue.
func NewIntentService(intents repository.Intents, diffs repository.Diffs, q *queue.Queue) *IntentService {
	return &IntentService{intents: intents, diffs: diffs, queue: q}
}

// CreateFullIntent registers a whole-device intent with an operator-supplied
// configuration. At most one full intent may exist per hostname.
func (s *IntentService) CreateFullIntent(ctx context.Context, hostname, description, config string) (*domain.Intent, error) {
	query := domain.ByHostname(hostname)
	query.Type = domain.IntentTypeFull
	existing, err := s.intents.GetByFilter(ctx, query)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrFullIntentAlreadyExists()
	}

	canon, hash, err := canonical.Canonicalize(config)
	if err != nil {
		return nil, err
	}

	intent := domain.NewIntent(hostname, domain.IntentTypeFull)
	intent.Description = description
	intent.Config = string(canon)
	intent.ConfigHash = hash

	return s.intents.Create(ctx, intent)
}

// CreatePartialIntent registers a subtree-scoped intent. Both the canonical
// configuration and the canonical filter must be unique within the intent's
// hostname scope; a missing hostname places the intent in the common scope.
func (s *IntentService) CreatePartialIntent(ctx context.Context, hostname, description, config, filter string) (*domain.Intent, error) {
	canonConfig, configHash, err := canonical.Canonicalize(config)
	if err != nil {
		return nil, err
	}

	query := domain.ByHostname(hostname)
	query.Type = domain.IntentTypePartial
	query.ConfigHash = configHash
	existing, err := s.intents.GetByFilter(ctx, query)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrPartialIntentAlreadyExists()
	}

	canonFilter, filterHash, err := canonical.Canonicalize(filter)
	if err != nil {
		return nil, err
	}

	query = domain.ByHostname(hostname)
	query.Type = domain.IntentTypePartial
	query.FilterHash = filterHash
	existing, err = s.intents.GetByFilter(ctx, query)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrPartialFilterAlreadyExists()
	}

	intent := domain.NewIntent(hostname, domain.IntentTypePartial)
	intent.Description = description
	intent.Config = string(canonConfig)
	intent.ConfigHash = configHash
	intent.Filter = string(canonFilter)
	intent.FilterHash = filterHash

	return s.intents.Create(ctx, intent)
}

// CreateIntent registers a full intent whose baseline configuration is
// fetched from the device itself. The returned job resyncs the intent; its
// id is recorded as the intent's discovery id before the job is enqueued.
func (s *IntentService) CreateIntent(ctx context.Context, hostname, description string, auth domain.DeviceAuthentication) (*domain.Intent, *domain.Job, error) {
	query := domain.ByHostname(hostname)
	query.Type = domain.IntentTypeFull
	existing, err := s.intents.GetByFilter(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, domain.ErrFullIntentAlreadyExists()
	}

	jobID := uuid.NewString()
	intent := domain.NewIntent(hostname, domain.IntentTypeFull)
	intent.Description = description
	intent.LastDiscoveryID = jobID

	created, err := s.intents.Create(ctx, intent)
	if err != nil {
		return nil, nil, err
	}

	job, err := s.queue.Enqueue(ctx, domain.JobFunctionCreateIntent, domain.IntentJob{
		Intent: *created,
		Auth:   auth,
	}, jobID)
	if err != nil {
		return nil, nil, fmt.Errorf("intent %s created but discovery could not be enqueued: %w", created.ID, err)
	}
	return created, job, nil
}

// DiffIntent enqueues a drift check against the device. The webhook, if
// supplied, fires only when drift is found.
func (s *IntentService) DiffIntent(ctx context.Context, id string, auth domain.DeviceAuthentication, webhook *domain.Webhook) (*domain.Job, error) {
	intent, err := s.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.queue.Enqueue(ctx, domain.JobFunctionIntentDiff, domain.IntentJob{
		Intent:  *intent,
		Auth:    auth,
		Webhook: webhook,
	}, uuid.NewString())
}

// SyncIntent enqueues a resync that overwrites the intent's stored
// configuration with whatever the device currently runs.
func (s *IntentService) SyncIntent(ctx context.Context, id string, auth domain.DeviceAuthentication) (*domain.Job, error) {
	intent, err := s.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	refreshed, err := s.intents.Update(ctx, intent.ID, domain.IntentUpdate{
		LastDiscoveryID: domain.StringPtr(jobID),
	})
	if err != nil {
		log.Printf("Failed to record discovery id on intent %s, proceeding: %v", intent.ID, err)
		refreshed = intent
	}

	return s.queue.Enqueue(ctx, domain.JobFunctionCreateIntent, domain.IntentJob{
		Intent: *refreshed,
		Auth:   auth,
	}, jobID)
}

// GetIntent returns an intent of either type.
func (s *IntentService) GetIntent(ctx context.Context, id string) (*domain.Intent, error) {
	intent, err := s.intents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil {
		return nil, domain.ErrNotFound(fmt.Sprintf("intent '%s'", id))
	}
	return intent, nil
}

// GetFullIntent returns a full intent, treating a partial intent under the
// same id as absent.
func (s *IntentService) GetFullIntent(ctx context.Context, id string) (*domain.Intent, error) {
	intent, err := s.intents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil || intent.Type != domain.IntentTypeFull {
		return nil, domain.ErrFullIntentNotFound(id)
	}
	return intent, nil
}

// GetPartialIntent returns a partial intent, treating a full intent under
// the same id as absent.
func (s *IntentService) GetPartialIntent(ctx context.Context, id string) (*domain.Intent, error) {
	intent, err := s.intents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if intent == nil || intent.Type != domain.IntentTypePartial {
		return nil, domain.ErrPartialIntentNotFound(id)
	}
	return intent, nil
}

// ListIntents lists intents matching the query.
func (s *IntentService) ListIntents(ctx context.Context, skip, limit int, query domain.IntentQuery) ([]domain.Intent, error) {
	return s.intents.GetMulti(ctx, skip, limit, query)
}

// ListDiffs lists recorded drift diffs, optionally scoped to one intent.
func (s *IntentService) ListDiffs(ctx context.Context, skip, limit int, intentID string) ([]domain.IntentDiff, error) {
	if intentID != "" {
		if _, err := s.GetIntent(ctx, intentID); err != nil {
			return nil, err
		}
	}
	return s.diffs.GetMulti(ctx, skip, limit, intentID)
}

// UpdateIntent applies a sparse patch to an intent of either type, enforcing
// the immutability rules.
func (s *IntentService) UpdateIntent(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error) {
	intent, err := s.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, intent, patch)
}

// UpdateFullIntent applies a sparse patch to a full intent.
func (s *IntentService) UpdateFullIntent(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error) {
	intent, err := s.GetFullIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, intent, patch)
}

// UpdatePartialIntent applies a sparse patch to a partial intent.
func (s *IntentService) UpdatePartialIntent(ctx context.Context, id string, patch domain.IntentUpdate) (*domain.Intent, error) {
	intent, err := s.GetPartialIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyUpdate(ctx, intent, patch)
}

func (s *IntentService) applyUpdate(ctx context.Context, intent *domain.Intent, patch domain.IntentUpdate) (*domain.Intent, error) {
	if patch.ID != nil && *patch.ID != intent.ID {
		return nil, domain.ErrImmutableFieldViolation("id")
	}
	if patch.NetdriftManaged != nil && *patch.NetdriftManaged != intent.NetdriftManaged {
		return nil, domain.ErrImmutableFieldViolation("netdrift_managed")
	}
	if patch.Type != nil && *patch.Type != intent.Type {
		return nil, domain.ErrImmutableFieldViolation("type")
	}
	if patch.Hostname != nil && *patch.Hostname != intent.Hostname {
		return nil, domain.ErrHostnameLock()
	}

	if patch.Config != nil {
		canon, hash, err := canonical.Canonicalize(*patch.Config)
		if err != nil {
			return nil, err
		}
		patch.Config = domain.StringPtr(string(canon))
		patch.ConfigHash = domain.StringPtr(hash)
	}

	if patch.Filter != nil {
		if !intent.IsPartial() {
			return nil, domain.ErrImmutableFieldViolation("filter")
		}
		canon, hash, err := canonical.Canonicalize(*patch.Filter)
		if err != nil {
			return nil, err
		}
		patch.Filter = domain.StringPtr(string(canon))
		patch.FilterHash = domain.StringPtr(hash)
	}

	return s.intents.Update(ctx, intent.ID, patch)
}

// DeleteIntent removes an intent of either type.
func (s *IntentService) DeleteIntent(ctx context.Context, id string) error {
	if _, err := s.GetIntent(ctx, id); err != nil {
		return err
	}
	return s.intents.Delete(ctx, id)
}
