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

// ServicesHandler manages catalog endpoints.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalog *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// ListServices GET /services.
func (h *ServicesHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.catalog.ListServices(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ServiceResponse, 0, len(services))
	for i := range services {
		items = append(items, serviceResponse(&services[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetService GET /services/:id.
func (h *ServicesHandler) GetService(c *fiber.Ctx) error {
	svc, err := h.catalog.GetService(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

// CreateService POST /services. Admin only, enforced on the route.
func (h *ServicesHandler) CreateService(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	input, err := parseServiceRequest(c)
	if err != nil {
		return err
	}
	svc, err := h.catalog.CreateService(c.Context(), principalPerson(principal), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": serviceResponse(svc)})
}

// UpdateService PUT /services/:id. Admin only, enforced on the route.
func (h *ServicesHandler) UpdateService(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	input, err := parseServiceRequest(c)
	if err != nil {
		return err
	}
	svc, err := h.catalog.UpdateService(c.Context(), principalPerson(principal), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": serviceResponse(svc)})
}

// DeleteService DELETE /services/:id. Admin only, enforced on the route.
func (h *ServicesHandler) DeleteService(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.catalog.DeleteService(c.Context(), principalPerson(principal), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseServiceRequest(c *fiber.Ctx) (service.ServiceInput, error) {
	var req dto.ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ServiceInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	return service.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		BasePrice:   req.BasePrice,
	}, nil
}

func principalPerson(principal *auth.Principal) *domain.Person {
	if principal == nil {
		return nil
	}
	return principal.Person
}

func serviceResponse(svc *domain.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		ID:          svc.ID,
		Name:        svc.Name,
		Description: svc.Description,
		Category:    svc.Category,
		BasePrice:   svc.BasePrice,
		CreatedAt:   svc.CreatedAt,
	}
}
