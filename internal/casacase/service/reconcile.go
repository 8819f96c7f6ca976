package service

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/advocase/internal/casacase/domain"
)

// reconcileOrders diffs submitted court order rows against what is
// persisted. Rows without an id become creates; rows with a matching id
// become updates unless the submitted text is blank, which would erase a
// court-mandated directive, so that row is left untouched. Rows pointing
// at unknown ids are skipped.
func reconcileOrders(existing []domain.CaseCourtOrder, submitted []domain.CourtOrderInput) (creates []domain.CourtOrderInput, updates []domain.CaseCourtOrder) {
	byID := make(map[snowflake.ID]domain.CaseCourtOrder, len(existing))
	for _, order := range existing {
		byID[order.ID] = order
	}

	for _, input := range submitted {
		text := strings.TrimSpace(input.Text)
		if !domain.ValidImplementationStatus(input.ImplementationStatus) {
			continue
		}
		if input.ID == nil {
			if text == "" {
				continue
			}
			creates = append(creates, domain.CourtOrderInput{
				Text:                 text,
				ImplementationStatus: input.ImplementationStatus,
			})
			continue
		}

		current, ok := byID[*input.ID]
		if !ok {
			continue
		}
		if text == "" {
			continue
		}
		current.Text = text
		current.ImplementationStatus = input.ImplementationStatus
		updates = append(updates, current)
	}
	return creates, updates
}
