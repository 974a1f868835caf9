package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/provision-service/internal/api/dto"
	"github.com/spec-kit/provision-service/internal/auth"
	"github.com/spec-kit/provision-service/internal/domain"
	"github.com/spec-kit/provision-service/internal/service"
	apperrors "github.com/spec-kit/provision-service/pkg/util"
)

// ProvisionsHandler manages provision endpoints.
type ProvisionsHandler struct {
	service *service.ProvisionService
}

// NewProvisionsHandler constructs handler.
func NewProvisionsHandler(provisionService *service.ProvisionService) *ProvisionsHandler {
	return &ProvisionsHandler{service: provisionService}
}

// CreateProvision POST /provisions.
func (h *ProvisionsHandler) CreateProvision(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateProvisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ServiceID == "" {
		return apperrors.NewValidationError("service_id required", nil)
	}

	provision, err := h.service.CreateProvision(c.Context(), principal.Person, service.ProvisionCreateInput{
		ServiceID: req.ServiceID,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": provisionResponse(provision)})
}

// ListProvisions GET /provisions.
func (h *ProvisionsHandler) ListProvisions(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	provisions, err := h.service.ListProvisions(c.Context(), principal.Person)
	if err != nil {
		return err
	}
	items := make([]dto.ProvisionResponse, 0, len(provisions))
	for i := range provisions {
		items = append(items, provisionResponse(&provisions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetProvision GET /provisions/:id.
func (h *ProvisionsHandler) GetProvision(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	provision, err := h.service.GetProvision(c.Context(), principal.Person, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": provisionResponse(provision)})
}

// UpdateStatus PUT /provisions/:id/status.
func (h *ProvisionsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateProvisionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	provision, err := h.service.UpdateStatus(c.Context(), principal.Person, c.Params("id"), req.Status, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": provisionResponse(provision)})
}

// GetHistory GET /provisions/:id/history.
func (h *ProvisionsHandler) GetHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	entries, err := h.service.GetHistory(c.Context(), principal.Person, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ProvisionHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.ProvisionHistoryResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			ActorRole: entry.ActorRole,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			Notes:     entry.Notes,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func provisionResponse(provision *domain.Provision) dto.ProvisionResponse {
	return dto.ProvisionResponse{
		ID:             provision.ID,
		ServiceID:      provision.ServiceID,
		PersonID:       provision.PersonID,
		RequestDate:    provision.RequestDate,
		CompletionDate: provision.CompletionDate,
		FinalPrice:     provision.FinalPrice,
		Status:         provision.Status,
		Notes:          provision.Notes,
		Version:        provision.Version,
	}
}
