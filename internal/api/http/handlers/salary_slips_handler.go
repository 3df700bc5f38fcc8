package handlers

import (
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-portal/internal/api/dto"
	"github.com/spec-kit/employee-portal/internal/service"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

// SalarySlipsHandler exposes slip listing, upload and download.
type SalarySlipsHandler struct {
	service *service.SalarySlipService
}

// NewSalarySlipsHandler constructs handler.
func NewSalarySlipsHandler(slipService *service.SalarySlipService) *SalarySlipsHandler {
	return &SalarySlipsHandler{service: slipService}
}

// List GET /salary-slips?employee_id=&month=&year=.
func (h *SalarySlipsHandler) List(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	query := service.SlipQuery{
		EmployeeRef: optionalQuery(c, "employee_id"),
		Month:       optionalQuery(c, "month"),
	}
	if raw := optionalQuery(c, "year"); raw != nil {
		year, err := strconv.Atoi(*raw)
		if err != nil {
			return apperrors.NewValidationError("invalid year filter", map[string]any{"year": *raw})
		}
		query.Year = &year
	}

	slips, err := h.service.List(c.UserContext(), caller.Authorization, query)
	if err != nil {
		return err
	}
	items := make([]dto.SalarySlipResponse, 0, len(slips))
	for i := range slips {
		items = append(items, slipResponse(&slips[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Upload POST /salary-slips (multipart: employee_id, month, year, file).
func (h *SalarySlipsHandler) Upload(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{"file": "required"})
	}
	year, err := strconv.Atoi(strings.TrimSpace(c.FormValue("year")))
	if err != nil {
		return apperrors.NewValidationError("invalid salary slip upload", map[string]any{"year": "must be a number"})
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("file could not be read", nil)
	}
	defer file.Close()

	slip, err := h.service.Upload(c.UserContext(), caller.Authorization, service.UploadInput{
		EmployeeRef: strings.TrimSpace(c.FormValue("employee_id")),
		Month:       c.FormValue("month"),
		Year:        year,
		FileName:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": slipResponse(slip)})
}

// Get GET /salary-slips/:id.
func (h *SalarySlipsHandler) Get(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	slip, err := h.service.Get(c.UserContext(), caller.Authorization, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slipResponse(slip)})
}

// Link GET /salary-slips/:id/link issues a time-limited download URL.
func (h *SalarySlipsHandler) Link(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	_, link, err := h.service.SignedLink(c.UserContext(), caller.Authorization, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SignedLinkResponse{URL: link.URL, ExpiresAt: link.ExpiresAt}})
}

// Download GET /salary-slips/:id/download streams the PDF.
func (h *SalarySlipsHandler) Download(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	slip, body, size, err := h.service.Download(c.UserContext(), caller.Authorization, c.Params("id"))
	if err != nil {
		return err
	}
	setAttachment(c, slip.FileName)
	return c.SendStream(body, int(size))
}

// OpenSigned GET /files/:token serves an object named by a signed token.
func (h *SalarySlipsHandler) OpenSigned(c *fiber.Ctx) error {
	objectPath, body, size, err := h.service.OpenSigned(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	setAttachment(c, path.Base(objectPath))
	return c.SendStream(body, int(size))
}

func setAttachment(c *fiber.Ctx, fileName string) {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Set(fiber.HeaderCacheControl, "private, no-store")
}
