package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tenant_portal_backend/internal/applications/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetCriteria(ctx context.Context, propertyID uuid.UUID) (domain.Criteria, error) {
	return scanCriteria(r.pool.QueryRow(ctx, `
		SELECT property_id, monthly_rent, available_from, hard_criteria, soft_criteria,
			comfortable_household_size, required_documents, updated_at
		FROM property_criteria
		WHERE property_id = $1
	`, propertyID))
}

func (r *Repository) UpsertCriteria(ctx context.Context, c domain.Criteria) (domain.Criteria, error) {
	hard, err := json.Marshal(c.Hard)
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("encode hard criteria: %w", err)
	}
	weights := c.SoftWeights
	if weights == nil {
		weights = map[string]float64{}
	}
	soft, err := json.Marshal(weights)
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("encode soft criteria: %w", err)
	}

	return scanCriteria(r.pool.QueryRow(ctx, `
		INSERT INTO property_criteria (
			property_id, monthly_rent, available_from, hard_criteria, soft_criteria,
			comfortable_household_size, required_documents, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (property_id) DO UPDATE SET
			monthly_rent = EXCLUDED.monthly_rent,
			available_from = EXCLUDED.available_from,
			hard_criteria = EXCLUDED.hard_criteria,
			soft_criteria = EXCLUDED.soft_criteria,
			comfortable_household_size = EXCLUDED.comfortable_household_size,
			required_documents = EXCLUDED.required_documents,
			updated_at = NOW()
		RETURNING property_id, monthly_rent, available_from, hard_criteria, soft_criteria,
			comfortable_household_size, required_documents, updated_at
	`, c.PropertyID, c.MonthlyRent, c.AvailableFrom, hard, soft, c.ComfortableSize(), c.RequiredDocumentCount()))
}

func scanCriteria(row pgx.Row) (domain.Criteria, error) {
	var (
		c       domain.Criteria
		hardRaw []byte
		softRaw []byte
	)
	err := row.Scan(&c.PropertyID, &c.MonthlyRent, &c.AvailableFrom, &hardRaw, &softRaw,
		&c.ComfortableHouseholdSize, &c.RequiredDocuments, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Criteria{}, ErrCriteriaNotFound
	}
	if err != nil {
		return domain.Criteria{}, err
	}
	if err := json.Unmarshal(hardRaw, &c.Hard); err != nil {
		return domain.Criteria{}, fmt.Errorf("decode hard criteria: %w", err)
	}
	if err := json.Unmarshal(softRaw, &c.SoftWeights); err != nil {
		return domain.Criteria{}, fmt.Errorf("decode soft criteria: %w", err)
	}
	return c, nil
}
