package reconciliation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/domain"
)

type Tier string

const (
	TierExact             Tier = "exact"
	TierAmountDate        Tier = "amount-date"
	TierAmountVehicle     Tier = "amount-vehicle"
	TierAmountBeneficiary Tier = "amount-beneficiary"
	TierAmountOnly        Tier = "amount-only"
)

// fuzzyTiers are tried in this order after the exact lookup.
var fuzzyTiers = []Tier{TierAmountDate, TierAmountVehicle, TierAmountBeneficiary}

// matchKeys are the weak join fields shared by movements and history metadata.
type matchKeys struct {
	amount      decimal.Decimal
	date        *time.Time
	vehicle     *uuid.UUID
	beneficiary *uuid.UUID
}

func movementKeys(m domain.Movement) matchKeys {
	date := m.Date
	return matchKeys{amount: m.Amount, date: &date, vehicle: m.VehicleID, beneficiary: m.BeneficiaryID}
}

func entryKeys(e domain.ContractHistoryEntry) matchKeys {
	return matchKeys{
		amount:      e.Metadata.Amount.Decimal,
		date:        e.Metadata.Date,
		vehicle:     e.Metadata.VehicleID,
		beneficiary: e.Metadata.BeneficiaryID,
	}
}

// key renders the lookup key for a tier; ok is false when a required field is missing.
func (k matchKeys) key(t Tier) (string, bool) {
	amount := k.amount.StringFixed(2)
	switch t {
	case TierExact:
		if k.date == nil || k.vehicle == nil || k.beneficiary == nil {
			return "", false
		}
		return amount + "|" + isoTime(*k.date) + "|" + k.vehicle.String() + "|" + k.beneficiary.String(), true
	case TierAmountDate:
		if k.date == nil {
			return "", false
		}
		return amount + "|" + isoTime(*k.date), true
	case TierAmountVehicle:
		if k.vehicle == nil {
			return "", false
		}
		return amount + "|v:" + k.vehicle.String(), true
	case TierAmountBeneficiary:
		if k.beneficiary == nil {
			return "", false
		}
		return amount + "|b:" + k.beneficiary.String(), true
	case TierAmountOnly:
		return amount, true
	}
	return "", false
}

func isoTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

type candidate struct {
	entry    domain.ContractHistoryEntry
	consumed bool
}

// index holds every unlinked entry under each key it can produce. Slices keep entry creation order.
type index struct {
	byTier map[Tier]map[string][]*candidate
}

func newIndex(entries []domain.ContractHistoryEntry) *index {
	idx := &index{byTier: make(map[Tier]map[string][]*candidate)}
	for _, t := range []Tier{TierExact, TierAmountDate, TierAmountVehicle, TierAmountBeneficiary, TierAmountOnly} {
		idx.byTier[t] = make(map[string][]*candidate)
	}
	for _, e := range entries {
		c := &candidate{entry: e}
		keys := entryKeys(e)
		for t, bucket := range idx.byTier {
			if k, ok := keys.key(t); ok {
				bucket[k] = append(bucket[k], c)
			}
		}
	}
	return idx
}

func (idx *index) lookup(t Tier, keys matchKeys) []*candidate {
	k, ok := keys.key(t)
	if !ok {
		return nil
	}
	return idx.byTier[t][k]
}

// first returns the first candidate not yet linked in this run.
func first(cands []*candidate) *candidate {
	for _, c := range cands {
		if !c.consumed {
			return c
		}
	}
	return nil
}

// closest picks the candidate whose metadata date is nearest to at. Ties keep the earlier candidate.
func closest(cands []*candidate, at time.Time) (*candidate, time.Duration) {
	var (
		best     *candidate
		bestDist time.Duration
	)
	for _, c := range cands {
		if c.consumed || c.entry.Metadata.Date == nil {
			continue
		}
		d := c.entry.Metadata.Date.Sub(at)
		if d < 0 {
			d = -d
		}
		if best == nil || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}
