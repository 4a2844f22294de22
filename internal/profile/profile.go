// Package profile stores per-client brand configuration.
package profile

import "errors"

// Registry error types.
var (
	// ErrUnknownClient is returned when no profile exists for a client ID.
	ErrUnknownClient = errors.New("client not registered")

	// ErrInvalidProfile is returned when a profile fails validation.
	ErrInvalidProfile = errors.New("invalid client profile")
)

// ClientProfile holds the brand voice and style configuration for one client.
//
// ClientID is the tenant key: all documents and retrieval results are
// partitioned by it. It is immutable once registered; re-registering the
// same ID replaces the whole profile.
type ClientProfile struct {
	// ClientID is the unique tenant identifier (required).
	ClientID string `json:"client_id"`

	// BrandVoice describes the client's voice in free text.
	BrandVoice string `json:"brand_voice"`

	// Tone describes the expected tone in free text.
	Tone string `json:"tone"`

	// Lexicon is the set of terms generated content must use.
	// Order is irrelevant; it is preserved only for prompt rendering.
	Lexicon []string `json:"lexicon"`

	// AvoidTerms is the set of terms generated content must not use.
	AvoidTerms []string `json:"avoid_terms"`

	// DeliverableTypes lists the content categories this client accepts.
	DeliverableTypes []string `json:"deliverable_types"`
}

// Validate checks that required fields are present.
func (p *ClientProfile) Validate() error {
	if p.ClientID == "" {
		return ErrInvalidProfile
	}
	return nil
}

// AllowsDeliverable reports whether the profile lists the given deliverable
// type. An empty DeliverableTypes list allows everything.
func (p *ClientProfile) AllowsDeliverable(deliverableType string) bool {
	if len(p.DeliverableTypes) == 0 {
		return true
	}
	for _, dt := range p.DeliverableTypes {
		if dt == deliverableType {
			return true
		}
	}
	return false
}
