package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resumind/internal/resumes"
)

// Service moves data between owner namespaces.
type Service struct {
	Resumes *resumes.Service
}

type ClaimResult struct {
	MigratedRecords int `json:"migratedRecords"`
}

func NewService(svc *resumes.Service) *Service {
	return &Service{Resumes: svc}
}

// ClaimGuest moves every record a guest created into the signed-in user's
// namespace. Records that fail to move stay with the guest and are reported
// in the joined error; the count covers only the records that moved.
func (s *Service) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (ClaimResult, error) {
	if strings.TrimSpace(guestUserID) == "" || strings.TrimSpace(authedUserID) == "" {
		return ClaimResult{}, errors.New("guestUserID and authedUserID are required")
	}
	if guestUserID == authedUserID {
		return ClaimResult{}, nil
	}

	guest := s.Resumes.ForOwner(guestUserID)
	owner := s.Resumes.ForOwner(authedUserID)

	items, err := guest.List(ctx)
	if err != nil {
		return ClaimResult{}, err
	}

	var (
		result ClaimResult
		errs   []error
	)
	for _, item := range items {
		if err := guest.Transfer(ctx, owner, item); err != nil {
			errs = append(errs, fmt.Errorf("claim %s: %w", item.Record.ID, err))
			continue
		}
		result.MigratedRecords++
	}
	return result, errors.Join(errs...)
}
