package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/service"
)

// DashboardHandler serves the landing statistics.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Get GET /dashboard.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	d, err := h.service.Get(c.UserContext(), caller.Authorization)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DashboardResponse{
		Role:            string(d.Role),
		Profile:         profileResponse(d.Profile),
		CurrentMonth:    d.CurrentMonth,
		CurrentYear:     d.CurrentYear,
		TotalEmployees:  d.TotalEmployees,
		ActiveEmployees: d.ActiveEmployees,
		TotalSlips:      d.TotalSlips,
		Departments:     d.Departments,
		MySlips:         d.MySlips,
	}})
}
