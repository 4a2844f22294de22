package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/brandguard/internal/prompt"
)

// MockGenerator is a deterministic placeholder implementation for local
// runs and tests. It never calls an external model; it echoes the task and
// the sources it was grounded on.
type MockGenerator struct{}

// Generate returns a canned response derived from the request.
func (MockGenerator) Generate(_ context.Context, req prompt.GenerationRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[mock %s for %s]\n", req.DeliverableType, req.ClientID)
	fmt.Fprintf(&sb, "Grounded on sources: %s\n", strings.Join(req.Sources, ", "))
	return sb.String(), nil
}

var _ Generator = MockGenerator{}
