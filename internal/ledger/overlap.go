package ledger

import (
	"github.com/segyhp/sponsorship-ledger/internal/domain"
)

// FindOverlap returns the first existing payment whose period intersects proposed.
// The whole history is scanned, so a gap-filling payment for an earlier period is
// still checked against every later payment.
func FindOverlap(existing []*domain.Payment, proposed domain.Period) (*domain.Payment, bool) {
	for _, p := range existing {
		if p.Period().Overlaps(proposed) {
			return p, true
		}
	}
	return nil, false
}
