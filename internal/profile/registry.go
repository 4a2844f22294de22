package profile

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry is an in-memory, concurrency-safe store of client profiles.
//
// Registries are injected into the pipeline rather than shared process-wide,
// so isolated pipeline instances (one per test, for example) cannot interfere
// with each other.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]ClientProfile
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		profiles: make(map[string]ClientProfile),
		logger:   logger,
	}
}

// Register inserts or replaces the profile keyed by its ClientID.
//
// Overwriting an existing registration is last-write-wins and is not an
// error: clients update their brand configuration by re-registering.
func (r *Registry) Register(p ClientProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("registering profile: %w", err)
	}

	r.mu.Lock()
	_, replaced := r.profiles[p.ClientID]
	r.profiles[p.ClientID] = p
	r.mu.Unlock()

	r.logger.Info("registered client profile",
		zap.String("client_id", p.ClientID),
		zap.Bool("replaced", replaced),
	)
	return nil
}

// Lookup returns the profile for the given client ID.
// Returns ErrUnknownClient when absent.
func (r *Registry) Lookup(clientID string) (ClientProfile, error) {
	r.mu.RLock()
	p, ok := r.profiles[clientID]
	r.mu.RUnlock()

	if !ok {
		return ClientProfile{}, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}
	return p, nil
}

// Count returns the number of registered clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
