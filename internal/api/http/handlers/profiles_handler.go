package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/repository"
	"github.com/spec-kit/employee-portal/internal/service"
)

// ProfilesHandler exposes admin profile management.
type ProfilesHandler struct {
	service *service.ProfileService
}

// NewProfilesHandler constructs handler.
func NewProfilesHandler(profileService *service.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{service: profileService}
}

// List GET /profiles.
func (h *ProfilesHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	filter := repository.ProfileFilter{Search: c.Query("q")}
	filter.Limit, filter.Offset = paging(c, 50)

	profiles, err := h.service.List(c.UserContext(), caller.Authorization, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, profileResponse(p))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update PATCH /profiles/:id.
func (h *ProfilesHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	update := domain.ProfileUpdate{
		Name:             req.Name,
		Department:       req.Department,
		Position:         req.Position,
		EmployeeRef:      req.EmployeeID,
		ClearEmployeeRef: req.ClearEmployee,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		update.Role = &role
	}
	profile, err := h.service.Update(c.UserContext(), caller.Authorization, c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(*profile)})
}
