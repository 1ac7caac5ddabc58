package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tourrental/internal/domain"
	"tourrental/internal/pkg/dbctx"
	"tourrental/internal/pkg/logger"
)

const (
	DefaultFuzzyWindow      = time.Hour
	DefaultAmountOnlyWindow = 24 * time.Hour
)

type MatchType string

const (
	MatchExact  MatchType = "exact"
	MatchFuzzy  MatchType = "fuzzy"
	MatchFailed MatchType = "failed"
	// MatchOneDirectional means only the movement side of the link was stored.
	MatchOneDirectional MatchType = "one_directional"
)

// Match is the outcome for one movement. Failed matches carry a reason and no entry.
type Match struct {
	MovementID uuid.UUID       `json:"movement_id"`
	EntryID    *uuid.UUID      `json:"entry_id,omitempty"`
	Type       MatchType       `json:"type"`
	Tier       Tier            `json:"tier,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Distance   time.Duration   `json:"distance_ns"`
	Reason     string          `json:"reason,omitempty"`
}

type Result struct {
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	MovementsScanned int       `json:"movements_scanned"`
	EntriesScanned   int       `json:"entries_scanned"`
	Exact            int       `json:"exact"`
	Fuzzy            int       `json:"fuzzy"`
	Failed           int       `json:"failed"`
	OneDirectional   int       `json:"one_directional"`
	Matches          []Match   `json:"matches"`
}

func (r *Result) Linked() int {
	return r.Exact + r.Fuzzy
}

type SideStats struct {
	Linked   int64 `json:"linked"`
	Unlinked int64 `json:"unlinked"`
}

type Stats struct {
	Movements SideStats `json:"movements"`
	Entries   SideStats `json:"history_entries"`
}

type IssueKind string

const (
	IssueMissingEntry        IssueKind = "movement_points_to_missing_entry"
	IssueMissingMovement     IssueKind = "entry_points_to_missing_movement"
	IssueEntryNotMirrored    IssueKind = "entry_does_not_point_back"
	IssueMovementNotMirrored IssueKind = "movement_does_not_point_back"
)

// LinkIssue is a broken or one-directional link. Issues are reported, never repaired here.
type LinkIssue struct {
	Kind       IssueKind `json:"kind"`
	MovementID uuid.UUID `json:"movement_id"`
	EntryID    uuid.UUID `json:"entry_id"`
	Detail     string    `json:"detail"`
}

type Validation struct {
	MovementsChecked int         `json:"movements_checked"`
	EntriesChecked   int         `json:"entries_checked"`
	Issues           []LinkIssue `json:"issues"`
}

func (v *Validation) Valid() bool {
	return len(v.Issues) == 0
}

type Unlinked struct {
	Movements int64 `json:"movements"`
	Entries   int64 `json:"history_entries"`
}

type Windows struct {
	Fuzzy      time.Duration
	AmountOnly time.Duration
}

type Service struct {
	movements MovementRepository
	entries   EntryRepository
	windows   Windows
	log       *logger.Logger
	now       func() time.Time
}

func NewService(movements MovementRepository, entries EntryRepository, windows Windows, log *logger.Logger) *Service {
	if windows.Fuzzy <= 0 {
		windows.Fuzzy = DefaultFuzzyWindow
	}
	if windows.AmountOnly <= 0 {
		windows.AmountOnly = DefaultAmountOnlyWindow
	}
	return &Service{
		movements: movements,
		entries:   entries,
		windows:   windows,
		log:       log.With("service", "ReconciliationEngine"),
		now:       time.Now,
	}
}

// LinkExisting pairs unlinked movements with unlinked history entries that carry an amount.
// Each accepted pair is written as two independent updates, movement side first.
// Unmatched movements and failed writes are reported in the result, not returned as errors.
func (s *Service) LinkExisting(ctx context.Context) (*Result, error) {
	dbc := dbctx.New(ctx)
	res := &Result{StartedAt: s.now().UTC(), Matches: []Match{}}

	movements, err := s.movements.ListUnlinked(dbc)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListUnlinkedWithAmount(dbc)
	if err != nil {
		return nil, err
	}
	res.MovementsScanned = len(movements)
	res.EntriesScanned = len(entries)
	idx := newIndex(entries)

	for _, m := range movements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		match, c := s.find(idx, m)
		if c != nil {
			var partial *partialLinkError
			err := s.link(dbc, m.ID, c.entry.ID)
			switch {
			case err == nil:
				c.consumed = true
			case errors.As(err, &partial):
				// The entry is already claimed by this movement; nobody else may take it this run.
				c.consumed = true
				s.log.Error("link left one-directional", "movement_id", m.ID, "entry_id", c.entry.ID, "error", err)
				match.Type = MatchOneDirectional
				match.Reason = "one-directional link: " + err.Error()
			default:
				s.log.Warn("link write failed", "movement_id", m.ID, "entry_id", c.entry.ID, "error", err)
				match = failed(m, "link write failed: "+err.Error())
			}
		}

		switch match.Type {
		case MatchExact:
			res.Exact++
		case MatchFuzzy:
			res.Fuzzy++
		case MatchOneDirectional:
			res.OneDirectional++
		default:
			res.Failed++
		}
		res.Matches = append(res.Matches, match)
	}

	res.FinishedAt = s.now().UTC()
	s.log.Info("reconciliation finished",
		"movements", res.MovementsScanned, "entries", res.EntriesScanned,
		"exact", res.Exact, "fuzzy", res.Fuzzy, "failed", res.Failed,
		"one_directional", res.OneDirectional)
	return res, nil
}

func (s *Service) find(idx *index, m domain.Movement) (Match, *candidate) {
	keys := movementKeys(m)

	if c := first(idx.lookup(TierExact, keys)); c != nil {
		return accepted(m, c, MatchExact, TierExact, 0), c
	}

	for _, t := range fuzzyTiers {
		c, dist := closest(idx.lookup(t, keys), m.Date)
		if c != nil && dist <= s.windows.Fuzzy {
			return accepted(m, c, MatchFuzzy, t, dist), c
		}
	}

	c, dist := closest(idx.lookup(TierAmountOnly, keys), m.Date)
	if c != nil && dist <= s.windows.AmountOnly {
		return accepted(m, c, MatchFuzzy, TierAmountOnly, dist), c
	}

	if c == nil {
		return failed(m, "no unlinked history entry with amount "+m.Amount.StringFixed(2)), nil
	}
	return failed(m, fmt.Sprintf("closest entry with the same amount is %s away", dist.Round(time.Second))), nil
}

// partialLinkError reports a link whose movement side could not be cleared after the
// entry side failed.
type partialLinkError struct {
	entryErr error
	undoErr  error
}

func (e *partialLinkError) Error() string {
	return fmt.Sprintf("entry side failed (%v), movement side not reverted (%v)", e.entryErr, e.undoErr)
}

func (e *partialLinkError) Unwrap() error { return e.entryErr }

// link writes the movement side, then the entry side. When the entry side fails the
// movement side is cleared again so a failed match never leaves a stored link behind.
func (s *Service) link(dbc dbctx.Context, movementID, entryID uuid.UUID) error {
	if err := s.movements.SetHistoryEntry(dbc, movementID, &entryID); err != nil {
		return err
	}
	if err := s.entries.SetRelatedMovement(dbc, entryID, &movementID); err != nil {
		if undoErr := s.movements.SetHistoryEntry(dbc, movementID, nil); undoErr != nil {
			return &partialLinkError{entryErr: err, undoErr: undoErr}
		}
		return err
	}
	return nil
}

func accepted(m domain.Movement, c *candidate, t MatchType, tier Tier, dist time.Duration) Match {
	id := c.entry.ID
	return Match{
		MovementID: m.ID,
		EntryID:    &id,
		Type:       t,
		Tier:       tier,
		Amount:     m.Amount,
		Date:       m.Date,
		Distance:   dist,
	}
}

func failed(m domain.Movement, reason string) Match {
	return Match{
		MovementID: m.ID,
		Type:       MatchFailed,
		Amount:     m.Amount,
		Date:       m.Date,
		Reason:     reason,
	}
}

// GetStats counts active linked and unlinked rows on both sides.
// Unlinked entries only include those carrying an amount.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	dbc := dbctx.New(ctx)
	var st Stats
	var err error
	if st.Movements.Linked, st.Movements.Unlinked, err = s.movements.CountLinks(dbc); err != nil {
		return nil, err
	}
	if st.Entries.Linked, st.Entries.Unlinked, err = s.entries.CountLinks(dbc); err != nil {
		return nil, err
	}
	return &st, nil
}

// ValidateLinks checks every link on both sides, soft-deleted rows included.
func (s *Service) ValidateLinks(ctx context.Context) (*Validation, error) {
	dbc := dbctx.New(ctx)
	movements, err := s.movements.ListLinked(dbc)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListLinked(dbc)
	if err != nil {
		return nil, err
	}

	entryIDs := make([]uuid.UUID, 0, len(movements))
	for _, m := range movements {
		entryIDs = append(entryIDs, *m.ContractHistoryEntryID)
	}
	targets, err := s.entries.GetByIDs(dbc, entryIDs)
	if err != nil {
		return nil, err
	}
	movementIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		movementIDs = append(movementIDs, *e.RelatedMovementID)
	}
	sources, err := s.movements.GetByIDs(dbc, movementIDs)
	if err != nil {
		return nil, err
	}

	v := &Validation{MovementsChecked: len(movements), EntriesChecked: len(entries), Issues: []LinkIssue{}}
	for _, m := range movements {
		entryID := *m.ContractHistoryEntryID
		e, ok := targets[entryID]
		switch {
		case !ok:
			v.Issues = append(v.Issues, LinkIssue{
				Kind: IssueMissingEntry, MovementID: m.ID, EntryID: entryID,
				Detail: "movement references a history entry that does not exist",
			})
		case e.RelatedMovementID == nil || *e.RelatedMovementID != m.ID:
			v.Issues = append(v.Issues, LinkIssue{
				Kind: IssueEntryNotMirrored, MovementID: m.ID, EntryID: entryID,
				Detail: "history entry does not reference the movement back",
			})
		}
	}
	for _, e := range entries {
		movementID := *e.RelatedMovementID
		m, ok := sources[movementID]
		switch {
		case !ok:
			v.Issues = append(v.Issues, LinkIssue{
				Kind: IssueMissingMovement, MovementID: movementID, EntryID: e.ID,
				Detail: "history entry references a movement that does not exist",
			})
		case m.ContractHistoryEntryID == nil || *m.ContractHistoryEntryID != e.ID:
			v.Issues = append(v.Issues, LinkIssue{
				Kind: IssueMovementNotMirrored, MovementID: movementID, EntryID: e.ID,
				Detail: "movement does not reference the history entry back",
			})
		}
	}

	if !v.Valid() {
		s.log.Warn("link integrity issues found", "issues", len(v.Issues))
	}
	return v, nil
}

// UnlinkAll clears every link on both sides.
func (s *Service) UnlinkAll(ctx context.Context) (*Unlinked, error) {
	dbc := dbctx.New(ctx)
	movements, err := s.movements.ClearAllLinks(dbc)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ClearAllLinks(dbc)
	if err != nil {
		return nil, err
	}
	s.log.Warn("all reconciliation links cleared", "movements", movements, "entries", entries)
	return &Unlinked{Movements: movements, Entries: entries}, nil
}
