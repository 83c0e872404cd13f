// Package handler exposes the applications service over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"

	"tenant_portal_backend/internal/applications/transport"
	"tenant_portal_backend/platform/httpkit"
	"tenant_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// ApplicationService is the service surface used by the handler.
type ApplicationService interface {
	Import(ctx context.Context, req transport.ImportApplicationRequest) (transport.ApplicationResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (transport.ApplicationResponse, error)
	List(ctx context.Context, q transport.ListApplicationsQuery) (transport.ListApplicationsResponse, error)
	Evaluate(ctx context.Context, id uuid.UUID) (transport.EvaluationResponse, error)
	EvaluateProperty(ctx context.Context, propertyID uuid.UUID) (transport.BatchEvaluationResponse, error)
	Advance(ctx context.Context, id uuid.UUID, req transport.AdvanceRequest) (transport.ApplicationResponse, error)
	Decide(ctx context.Context, id uuid.UUID, req transport.DecisionRequest, actor string) (transport.DecisionResponse, error)
	ListDecisions(ctx context.Context, id uuid.UUID) (transport.DecisionHistoryResponse, error)
	Compare(ctx context.Context, req transport.CompareRequest) (transport.CompareResponse, error)
	GetCriteria(ctx context.Context, propertyID uuid.UUID) (transport.CriteriaResponse, error)
	PutCriteria(ctx context.Context, propertyID uuid.UUID, req transport.CriteriaRequest) (transport.CriteriaResponse, error)
	Funnel(ctx context.Context, propertyID uuid.UUID, q transport.FunnelQuery) (transport.FunnelResponse, error)
}

type Handler struct {
	svc           ApplicationService
	val           *validator.Validator
	decisionLimit gin.HandlerFunc
}

// New creates the handler. decisionLimit guards the decision endpoint and may be nil.
func New(svc ApplicationService, val *validator.Validator, decisionLimit gin.HandlerFunc) *Handler {
	return &Handler{svc: svc, val: val, decisionLimit: decisionLimit}
}

// RegisterRoutes mounts the application and property routes on rg.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	apps := rg.Group("/applications")
	apps.GET("", h.List)
	apps.POST("", h.Import)
	apps.POST("/compare", h.Compare)
	apps.GET("/:id", h.GetByID)
	apps.POST("/:id/evaluate", h.Evaluate)
	apps.POST("/:id/advance", h.Advance)
	apps.GET("/:id/decisions", h.ListDecisions)
	if h.decisionLimit != nil {
		apps.POST("/:id/decisions", h.decisionLimit, h.Decide)
	} else {
		apps.POST("/:id/decisions", h.Decide)
	}

	props := rg.Group("/properties/:propertyId")
	props.GET("/criteria", h.GetCriteria)
	props.PUT("/criteria", h.PutCriteria)
	props.POST("/evaluate", h.EvaluateProperty)
	props.GET("/funnel", h.Funnel)
}

func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportApplicationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Import(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) List(c *gin.Context) {
	var q transport.ListApplicationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	q.Portals = splitValues(q.Portals)
	q.Statuses = splitValues(q.Statuses)
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	resp, err := h.svc.List(c.Request.Context(), q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Evaluate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Evaluate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Advance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.AdvanceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Advance(c.Request.Context(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Decide(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req transport.DecisionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.svc.Decide(c.Request.Context(), id, req, identity.Actor())
	if httpkit.HandleError(c, err) {
		return
	}
	if resp.NoOp {
		httpkit.OK(c, resp)
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

func (h *Handler) ListDecisions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListDecisions(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Compare(c *gin.Context) {
	var req transport.CompareRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Compare(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) GetCriteria(c *gin.Context) {
	propertyID, ok := parseID(c, "propertyId")
	if !ok {
		return
	}
	resp, err := h.svc.GetCriteria(c.Request.Context(), propertyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) PutCriteria(c *gin.Context) {
	propertyID, ok := parseID(c, "propertyId")
	if !ok {
		return
	}
	var req transport.CriteriaRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.PutCriteria(c.Request.Context(), propertyID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) EvaluateProperty(c *gin.Context) {
	propertyID, ok := parseID(c, "propertyId")
	if !ok {
		return
	}
	resp, err := h.svc.EvaluateProperty(c.Request.Context(), propertyID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) Funnel(c *gin.Context) {
	propertyID, ok := parseID(c, "propertyId")
	if !ok {
		return
	}
	var q transport.FunnelQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	resp, err := h.svc.Funnel(c.Request.Context(), propertyID, q)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

func (h *Handler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, map[string]string{param: "must be a UUID"})
		return uuid.UUID{}, false
	}
	return id, true
}

// splitValues accepts both repeated and comma separated query values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
