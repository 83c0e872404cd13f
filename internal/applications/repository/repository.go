// Package repository persists applications, decisions and property criteria
// in PostgreSQL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tenant_portal_backend/internal/applications/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("application not found")
	ErrCriteriaNotFound = errors.New("criteria not found")
	// ErrStatusChanged means another writer moved the application first.
	ErrStatusChanged = errors.New("application status changed concurrently")
	ErrDuplicate     = errors.New("application already exists")
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, property_id, source_portal, applicant_name, applicant_email, applicant_phone,
	income, employment_status, household_size, has_pets, smoker, move_in_date, move_in_flexible,
	documents_provided, ai_insights, status, hard_pass, hard_failures, score, scored_at,
	rejection_reason, decided_at, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var (
		l            domain.Lead
		email        *string
		employment   *string
		aiRaw        []byte
		hardPass     *bool
		hardFailures []string
	)
	err := row.Scan(
		&l.ID, &l.PropertyID, &l.SourcePortal, &l.ApplicantName, &email, &l.ApplicantPhone,
		&l.Income, &employment, &l.HouseholdSize, &l.HasPets, &l.Smoker, &l.MoveInDate, &l.MoveInFlexible,
		&l.DocumentsProvided, &aiRaw, &l.Status, &hardPass, &hardFailures, &l.Score, &l.ScoredAt,
		&l.RejectionReason, &l.DecidedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}

	if email != nil {
		l.ApplicantEmail = *email
	}
	if employment != nil {
		es := domain.EmploymentStatus(*employment)
		l.EmploymentStatus = &es
	}
	if len(aiRaw) > 0 {
		var ai domain.AIInsights
		if err := json.Unmarshal(aiRaw, &ai); err != nil {
			return domain.Lead{}, fmt.Errorf("decode ai insights: %w", err)
		}
		l.AIInsights = &ai
	}
	if hardPass != nil {
		if hardFailures == nil {
			hardFailures = []string{}
		}
		l.Verdict = &domain.Verdict{HardPass: *hardPass, HardFailures: hardFailures}
	}
	return l, nil
}

func collectLeads(rows pgx.Rows) ([]domain.Lead, error) {
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *Repository) Create(ctx context.Context, lead domain.Lead) (domain.Lead, error) {
	var aiRaw []byte
	if lead.AIInsights != nil {
		raw, err := json.Marshal(lead.AIInsights)
		if err != nil {
			return domain.Lead{}, fmt.Errorf("encode ai insights: %w", err)
		}
		aiRaw = raw
	}

	var employment *string
	if lead.EmploymentStatus != nil {
		s := string(*lead.EmploymentStatus)
		employment = &s
	}

	createdAt := lead.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO applications (
			id, property_id, source_portal, applicant_name, applicant_email, applicant_phone,
			income, employment_status, household_size, has_pets, smoker, move_in_date, move_in_flexible,
			documents_provided, ai_insights, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING `+leadColumns,
		lead.ID, lead.PropertyID, string(lead.SourcePortal), lead.ApplicantName, lead.ApplicantEmail, lead.ApplicantPhone,
		lead.Income, employment, lead.HouseholdSize, lead.HasPets, lead.Smoker, lead.MoveInDate, lead.MoveInFlexible,
		lead.DocumentsProvided, aiRaw, string(lead.Status), createdAt,
	)
	created, err := scanLead(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.Lead{}, ErrDuplicate
	}
	return created, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	l, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM applications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return l, err
}

// GetByIDs returns the applications found, in no particular order. Missing
// ids are silently skipped.
func (r *Repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM applications WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM applications
		WHERE property_id = $1
			AND ($2::timestamptz IS NULL OR created_at >= $2)
			AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at ASC, id ASC
	`, params.PropertyID, params.From, params.To)
	if err != nil {
		return nil, err
	}
	return collectLeads(rows)
}

func (r *Repository) UpdateEvaluation(ctx context.Context, id uuid.UUID, params EvaluationParams) error {
	failures := params.Verdict.HardFailures
	if failures == nil {
		failures = []string{}
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE applications
		SET hard_pass = $2, hard_failures = $3, score = $4, scored_at = $5, updated_at = NOW()
		WHERE id = $1
	`, id, params.Verdict.HardPass, failures, params.Score, params.ScoredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (domain.Lead, error) {
	l, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE applications
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+leadColumns,
		id, string(from), string(to)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, r.explainMissedUpdate(ctx, id)
	}
	return l, err
}

// explainMissedUpdate classifies a conditional update that touched no row.
func (r *Repository) explainMissedUpdate(ctx context.Context, id uuid.UUID) error {
	var status domain.Status
	err := r.pool.QueryRow(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	case status.IsTerminal():
		return fmt.Errorf("%w: %s", domain.ErrTerminalState, status)
	default:
		return ErrStatusChanged
	}
}

func (r *Repository) ListOpenSiblings(ctx context.Context, propertyID, excludeID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM applications
		WHERE property_id = $1 AND id <> $2 AND status NOT IN ('selected', 'rejected')
		ORDER BY created_at ASC
	`, propertyID, excludeID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (r *Repository) ListPropertyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT property_id FROM applications
		UNION
		SELECT property_id FROM property_criteria
		ORDER BY property_id
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}
