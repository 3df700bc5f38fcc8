package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/repository"
	"github.com/spec-kit/employee-portal/internal/service"
)

// EmployeesHandler manages the employee roster screens.
type EmployeesHandler struct {
	service *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{service: employeeService}
}

// List GET /employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	filter := repository.EmployeeFilter{Search: c.Query("q")}
	if status := optionalQuery(c, "status"); status != nil {
		s := domain.EmployeeStatus(*status)
		filter.Status = &s
	}
	filter.Limit, filter.Offset = paging(c, 50)

	employees, err := h.service.List(c.UserContext(), caller.Authorization, filter)
	if err != nil {
		return err
	}
	items := make([]dto.EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, employeeResponse(&employees[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	employee, err := h.service.Get(c.UserContext(), caller.Authorization, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Create POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := h.service.Create(c.UserContext(), caller.Authorization, employeeInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Update PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	employee, err := h.service.Update(c.UserContext(), caller.Authorization, c.Params("id"), employeeInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": employeeResponse(employee)})
}

// Delete DELETE /employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), caller.Authorization, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func employeeInput(req dto.EmployeeRequest) service.EmployeeInput {
	return service.EmployeeInput{
		Code:    req.EmployeeCode,
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Status:  domain.EmployeeStatus(req.Status),
	}
}
