package service

import (
	"context"
	"fmt"

	repository "github.com/ds124wfegd/emergency-ops/internal/database/postgres"
	"github.com/ds124wfegd/emergency-ops/internal/entity"
)

// RecipientResolver expands a RecipientSpec into the concrete list of
// verified, active recipients. A valid spec that matches nobody
// resolves to an empty list; only an invalid spec or a directory
// failure produces an error.
type RecipientResolver struct {
	users repository.UserRepository
}

func NewRecipientResolver(users repository.UserRepository) *RecipientResolver {
	return &RecipientResolver{users: users}
}

func (r *RecipientResolver) Resolve(ctx context.Context, spec entity.RecipientSpec) ([]entity.Recipient, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	var (
		users []*entity.User
		err   error
	)
	switch spec.Kind {
	case entity.SpecAll:
		users, err = r.users.GetVerified(ctx)
	case entity.SpecRole:
		users, err = r.users.GetVerifiedByRole(ctx, spec.Role)
	case entity.SpecZone:
		users, err = r.users.GetVerifiedByZone(ctx, spec.Zone)
	case entity.SpecSpecific:
		users, err = r.users.GetVerifiedByIDs(ctx, spec.IDs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrRecipientResolution, err)
	}

	seen := make(map[string]struct{}, len(users))
	recipients := make([]entity.Recipient, 0, len(users))
	for _, u := range users {
		rcpt := entity.RecipientFromUser(u)
		key := rcpt.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		recipients = append(recipients, rcpt)
	}
	return recipients, nil
}
