// Package applications wires the tenant application module: ranking,
// comparison, decisions and funnel reporting for rental properties.
package applications

import (
	"fmt"

	"tenant_portal_backend/internal/applications/domain"
	"tenant_portal_backend/internal/applications/handler"
	"tenant_portal_backend/internal/applications/reporting"
	"tenant_portal_backend/internal/applications/repository"
	"tenant_portal_backend/internal/applications/service"
	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/internal/events"
	apphttp "tenant_portal_backend/internal/http"
	"tenant_portal_backend/platform/logger"
	"tenant_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	service *service.Service
	repo    *repository.Repository
	val     *validator.Validator
}

// NewModule creates the applications module. cache may be nil to disable
// funnel caching.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cache *reporting.FunnelCache, presets domain.CriteriaPresets, log *logger.Logger) (*Module, error) {
	if err := transport.RegisterValidations(val); err != nil {
		return nil, fmt.Errorf("applications validations: %w", err)
	}

	repo := repository.New(pool)
	var funnelCache service.FunnelCache
	if cache != nil {
		funnelCache = cache
	}
	svc := service.New(repo, eventBus, funnelCache, presets, log)

	return &Module{service: svc, repo: repo, val: val}, nil
}

func (m *Module) Name() string {
	return "applications"
}

// Service returns the application service for CLIs and other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the store, e.g. for listing properties in batch jobs.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	var decisionLimit gin.HandlerFunc
	if ctx.DecisionRateLimiter != nil {
		decisionLimit = ctx.DecisionRateLimiter.RateLimit()
	}
	handler.New(m.service, m.val, decisionLimit).RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
