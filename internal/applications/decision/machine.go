// Package decision is the state machine behind operator decisions on an
// application. It validates a decision against the current status, decides
// the new status and lists the side effects callers must trigger. It does not
// persist anything; the repository enforces the terminal check atomically.
package decision

import (
	"fmt"
	"strings"
	"time"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/platform/apperr"
	"tenant_portal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// EffectKind names a side effect requested by a transition.
type EffectKind string

const (
	EffectNotifyApplicant    EffectKind = "notify_applicant"
	EffectFlagSiblings       EffectKind = "flag_siblings"
	EffectRequestViewingSlot EffectKind = "request_viewing_slot"
	EffectReleaseViewingSlot EffectKind = "release_viewing_slot"
)

// Command is an operator decision.
type Command struct {
	Kind   domain.DecisionKind
	Reason string
	Actor  string
	Slot   *domain.ViewingSlot
}

// Transition is the outcome of Decide.
type Transition struct {
	From domain.Status
	To   domain.Status
	// NoOp is set when the decision repeats the previous one. No record is
	// written and no effects are emitted.
	NoOp    bool
	Record  *domain.DecisionRecord
	Effects []EffectKind
}

// Has reports whether the transition requests effect.
func (t Transition) Has(effect EffectKind) bool {
	for _, e := range t.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// TerminalStateError returns the conflict error for a decision on a closed application.
func TerminalStateError(status domain.Status) error {
	return apperr.Wrap(apperr.KindConflict, fmt.Sprintf("application is already %s", status), domain.ErrTerminalState)
}

// Decide applies cmd to lead. last is the most recent decision on the lead,
// or nil. now stamps the new record.
func Decide(lead domain.Lead, last *domain.DecisionRecord, cmd Command, now time.Time) (Transition, error) {
	if lead.Status.IsTerminal() {
		return Transition{}, TerminalStateError(lead.Status)
	}
	if !cmd.Kind.Valid() {
		return Transition{}, apperr.Wrap(apperr.KindValidation, fmt.Sprintf("unknown decision %q", cmd.Kind), domain.ErrUnknownDecision)
	}
	actor := strings.TrimSpace(cmd.Actor)
	if actor == "" {
		return Transition{}, apperr.Wrap(apperr.KindValidation, "actor is required", domain.ErrActorRequired)
	}

	reason := sanitize.Text(cmd.Reason)
	t := Transition{From: lead.Status}

	switch cmd.Kind {
	case domain.DecisionAccept:
		t.To = domain.StatusSelected
		t.Effects = []EffectKind{EffectNotifyApplicant, EffectFlagSiblings}

	case domain.DecisionReject:
		if reason == "" {
			return Transition{}, apperr.Wrap(apperr.KindValidation, "a reason is required to reject an application", domain.ErrReasonRequired)
		}
		t.To = domain.StatusRejected
		t.Effects = []EffectKind{EffectNotifyApplicant}
		if lead.Status == domain.StatusViewingScheduled {
			t.Effects = append(t.Effects, EffectReleaseViewingSlot)
		}

	case domain.DecisionScheduleViewing:
		if !lead.Status.IsPreQualification() {
			return Transition{}, apperr.Wrap(apperr.KindValidation,
				fmt.Sprintf("cannot schedule a viewing for a %s application", lead.Status), domain.ErrIllegalTransition)
		}
		if cmd.Slot != nil && cmd.Slot.End.Before(cmd.Slot.Start) {
			return Transition{}, apperr.Wrap(apperr.KindValidation, "viewing slot ends before it starts", domain.ErrInvalidViewingSlot)
		}
		t.To = domain.StatusViewingScheduled
		if lead.Status == domain.StatusViewingScheduled && last != nil && last.Kind == domain.DecisionScheduleViewing {
			t.NoOp = true
			return t, nil
		}
		t.Effects = []EffectKind{EffectRequestViewingSlot}
	}

	record := &domain.DecisionRecord{
		ID:               uuid.New(),
		LeadID:           lead.ID,
		Kind:             cmd.Kind,
		Actor:            actor,
		FromStatus:       t.From,
		ToStatus:         t.To,
		HardGateOverride: cmd.Kind == domain.DecisionAccept && lead.FailsHardCriteria(),
		DecidedAt:        now.UTC(),
	}
	if reason != "" {
		record.Reason = &reason
	}
	if cmd.Kind == domain.DecisionScheduleViewing {
		record.ViewingSlot = cmd.Slot
	}
	t.Record = record
	return t, nil
}

// Advance moves a lead forward along the pipeline without a decision. Only
// forward moves between non-terminal statuses are allowed, and a lead must
// pass its hard criteria to become qualified.
func Advance(lead domain.Lead, target domain.Status) error {
	if lead.Status.IsTerminal() {
		return TerminalStateError(lead.Status)
	}
	if !target.Valid() || target.IsTerminal() {
		return apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("%q is not a pipeline stage; use a decision to close an application", target), domain.ErrIllegalTransition)
	}
	if target.Rank() <= lead.Status.Rank() {
		return apperr.Wrap(apperr.KindValidation,
			fmt.Sprintf("cannot move from %s back to %s", lead.Status, target), domain.ErrIllegalTransition)
	}
	if target.RequiresHardPass() && !lead.PassesHardCriteria() {
		return apperr.Wrap(apperr.KindValidation, "application does not pass the hard criteria", domain.ErrHardGateFailed).
			WithDetails(hardFailures(lead))
	}
	return nil
}

func hardFailures(lead domain.Lead) map[string]any {
	if lead.Verdict == nil {
		return map[string]any{"evaluated": false}
	}
	return map[string]any{"evaluated": true, "hardFailures": lead.Verdict.HardFailures}
}
