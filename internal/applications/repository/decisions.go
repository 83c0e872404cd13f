package repository

import (
	"context"
	"errors"
	"time"

	"tenant_portal_backend/internal/applications/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const decisionColumns = `
	id, application_id, decision, reason, actor, from_status, to_status,
	hard_gate_override, viewing_slot_start, viewing_slot_end, decided_at`

// ApplyDecision moves the application to record.ToStatus and appends the
// record in one transaction. The update only matches while the application is
// still in record.FromStatus and not terminal, so two concurrent accepts
// cannot both succeed.
func (r *Repository) ApplyDecision(ctx context.Context, record domain.DecisionRecord) (domain.Lead, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rejectionReason *string
	if record.Kind == domain.DecisionReject {
		rejectionReason = record.Reason
	}

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE applications
		SET status = $3,
			rejection_reason = COALESCE($4, rejection_reason),
			decided_at = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = $2 AND status NOT IN ('selected', 'rejected')
		RETURNING `+leadColumns,
		record.LeadID, string(record.FromStatus), string(record.ToStatus), rejectionReason, record.DecidedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, r.explainMissedUpdate(ctx, record.LeadID)
	}
	if err != nil {
		return domain.Lead{}, err
	}

	var slotStart, slotEnd any
	if record.ViewingSlot != nil {
		slotStart, slotEnd = record.ViewingSlot.Start, record.ViewingSlot.End
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO application_decisions (
			id, application_id, decision, reason, actor, from_status, to_status,
			hard_gate_override, viewing_slot_start, viewing_slot_end, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.LeadID, string(record.Kind), record.Reason, record.Actor,
		string(record.FromStatus), string(record.ToStatus), record.HardGateOverride,
		slotStart, slotEnd, record.DecidedAt); err != nil {
		return domain.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

func scanDecision(row pgx.Row) (domain.DecisionRecord, error) {
	var (
		rec       domain.DecisionRecord
		slotStart *time.Time
		slotEnd   *time.Time
	)
	if err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.Kind, &rec.Reason, &rec.Actor, &rec.FromStatus, &rec.ToStatus,
		&rec.HardGateOverride, &slotStart, &slotEnd, &rec.DecidedAt,
	); err != nil {
		return domain.DecisionRecord{}, err
	}
	if slotStart != nil && slotEnd != nil {
		rec.ViewingSlot = &domain.ViewingSlot{Start: *slotStart, End: *slotEnd}
	}
	return rec, nil
}

func (r *Repository) LatestDecision(ctx context.Context, leadID uuid.UUID) (*domain.DecisionRecord, error) {
	rec, err := scanDecision(r.pool.QueryRow(ctx, `
		SELECT `+decisionColumns+`
		FROM application_decisions
		WHERE application_id = $1
		ORDER BY decided_at DESC, id DESC
		LIMIT 1
	`, leadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListDecisions returns the decision log oldest first.
func (r *Repository) ListDecisions(ctx context.Context, leadID uuid.UUID) ([]domain.DecisionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+decisionColumns+`
		FROM application_decisions
		WHERE application_id = $1
		ORDER BY decided_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.DecisionRecord, 0)
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
