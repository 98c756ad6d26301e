// Package originator provides the identity type shared by every event in
// the store: an entity id paired with a monotonically increasing version.
package originator

import (
	"github.com/google/uuid"

	apperrors "github.com/makkalot/eskit/internal/pkg/errors"
)

// Originator identifies a single entity instance at a specific version.
// Id is a UUIDv4 string; Version is a decimal string starting at "1".
type Originator struct {
	Id      string `json:"id"`
	Version string `json:"version"`
}

// Validate checks that o carries a well-formed id. An empty Version is
// allowed here — Create fills it in, Update requires it itself, and
// Delete resolves the latest version from the event store.
func Validate(o *Originator) error {
	if o == nil {
		return apperrors.InvalidArgument("empty originator")
	}
	if o.Id == "" {
		return apperrors.InvalidArgument("missing originator.id")
	}
	parsed, err := uuid.Parse(o.Id)
	if err != nil || parsed.Version() != 4 {
		return apperrors.InvalidArgument("originator id should be valid uuid4")
	}
	return nil
}
