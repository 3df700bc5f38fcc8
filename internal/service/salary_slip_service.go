package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-portal/internal/access"
	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/events"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/repository"
	"github.com/spec-kit/employee-portal/internal/storage"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

const (
	pdfContentType = "application/pdf"
	minSlipYear    = 2000
	maxSlipYear    = 2100
)

var pdfMagic = []byte("%PDF-")

// SalarySlipService runs the upload and download workflow for salary slips.
type SalarySlipService struct {
	slips      repository.SalarySlipRepository
	employees  repository.EmployeeRepository
	store      storage.ObjectStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
	linkTTL    time.Duration
	maxBytes   int64
}

// SalarySlipDependencies bundles collaborators for the slip service.
type SalarySlipDependencies struct {
	SlipRepo     repository.SalarySlipRepository
	EmployeeRepo repository.EmployeeRepository
	Store        storage.ObjectStore
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	LinkTTL      time.Duration
	MaxBytes     int64
}

// UploadInput describes one slip upload.
type UploadInput struct {
	EmployeeRef string
	Month       string
	Year        int
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SlipQuery carries optional list filters.
type SlipQuery struct {
	EmployeeRef *string
	Month       *string
	Year        *int
}

// NewSalarySlipService constructs the service.
func NewSalarySlipService(deps SalarySlipDependencies) *SalarySlipService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalarySlipService{
		slips:      deps.SlipRepo,
		employees:  deps.EmployeeRepo,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		linkTTL:    deps.LinkTTL,
		maxBytes:   deps.MaxBytes,
	}
}

// Upload stages the PDF, upserts the slip row and then swaps the blob in at the derived
// path. A rejected body or a failed row write leaves the previous slip untouched.
func (s *SalarySlipService) Upload(ctx context.Context, ac identity.AuthorizationContext, input UploadInput) (*domain.SalarySlip, error) {
	if err := access.Authorize(ac, access.ScreenSalarySlips, access.ActionUpload); err != nil {
		return nil, err
	}

	month, monthNumber, ok := domain.NormalizeMonth(input.Month)
	details := map[string]any{}
	if strings.TrimSpace(input.EmployeeRef) == "" {
		details["employee_id"] = "required"
	}
	if !ok {
		details["month"] = "must be a month name"
	}
	if input.Year < minSlipYear || input.Year > maxSlipYear {
		details["year"] = "out of range"
	}
	if input.Body == nil {
		details["file"] = "required"
	}
	if s.maxBytes > 0 && input.Size > s.maxBytes {
		details["file"] = "too large"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid salary slip upload", details)
	}

	body, err := requirePDF(input)
	if err != nil {
		return nil, err
	}

	if _, err := s.employees.GetByID(ctx, input.EmployeeRef); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError("unknown employee", map[string]any{"employee_id": input.EmployeeRef})
		}
		return nil, apperrors.MapError(err)
	}

	objectPath := domain.SlipPath(input.EmployeeRef, input.Year, monthNumber)
	staged, err := s.store.Stage(ctx, objectPath, body, s.maxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, apperrors.NewValidationError("invalid salary slip upload", map[string]any{"file": "too large"})
		}
		return nil, apperrors.MapError(err)
	}
	defer staged.Discard()

	slip := &domain.SalarySlip{
		EmployeeRef: input.EmployeeRef,
		Month:       month,
		Year:        input.Year,
		FileRef:     objectPath,
		FileName:    cleanFileName(input.FileName, month, input.Year),
		FileSize:    staged.Size(),
		UploadedBy:  uploaderOf(ac),
	}
	if err := s.slips.Upsert(ctx, slip); err != nil {
		return nil, apperrors.MapError(err)
	}
	// The row is already written; a failed rename leaves it describing the new file
	// while the previous bytes stay in place.
	if err := staged.Commit(); err != nil {
		s.logger.Error("salary slip row written but blob commit failed",
			zap.String("slip_id", slip.ID),
			zap.String("path", objectPath),
			zap.Error(err))
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("salary slip uploaded",
		zap.String("slip_id", slip.ID),
		zap.String("employee_id", slip.EmployeeRef),
		zap.String("period", month),
		zap.Int("year", slip.Year))
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.New(events.EventSalarySlipUploaded, slip.ID,
			events.Actor{Type: subjectTypeOf(ac), ProfileID: slip.UploadedBy},
			events.SalarySlipUploadedPayload{
				SlipID:      slip.ID,
				EmployeeRef: slip.EmployeeRef,
				Month:       slip.Month,
				Year:        slip.Year,
				FileName:    slip.FileName,
			}))
	}
	return slip, nil
}

// List returns the slips visible to the caller. The scope is applied in the query
// and again on the rows returned.
func (s *SalarySlipService) List(ctx context.Context, ac identity.AuthorizationContext, query SlipQuery) ([]domain.SalarySlip, error) {
	if err := access.Authorize(ac, access.ScreenSalarySlips, access.ActionView); err != nil {
		return nil, err
	}

	filter := repository.SlipFilter{EmployeeRef: query.EmployeeRef, Year: query.Year}
	if query.Month != nil {
		month, _, ok := domain.NormalizeMonth(*query.Month)
		if !ok {
			return nil, apperrors.NewValidationError("invalid month filter", map[string]any{"month": *query.Month})
		}
		filter.Month = &month
	}

	scope := access.SlipScopeFor(ac)
	switch scope.Kind {
	case access.ScopeNone:
		return []domain.SalarySlip{}, nil
	case access.ScopeEmployee:
		if query.EmployeeRef != nil && *query.EmployeeRef != scope.EmployeeRef {
			return []domain.SalarySlip{}, nil
		}
		ref := scope.EmployeeRef
		filter.EmployeeRef = &ref
	}

	slips, err := s.slips.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return access.FilterSlips(ac, slips), nil
}

// Get returns one slip if the caller may see it.
func (s *SalarySlipService) Get(ctx context.Context, ac identity.AuthorizationContext, id string) (*domain.SalarySlip, error) {
	slip, err := s.slips.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "salary slip", id)
	}
	if err := access.CanViewSlip(ac, *slip); err != nil {
		return nil, err
	}
	return slip, nil
}

// SignedLink issues a time-limited download link for a visible slip.
func (s *SalarySlipService) SignedLink(ctx context.Context, ac identity.AuthorizationContext, id string) (*domain.SalarySlip, storage.SignedURL, error) {
	slip, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, storage.SignedURL{}, err
	}
	link, err := s.store.CreateSignedURL(slip.FileRef, s.linkTTL)
	if err != nil {
		return nil, storage.SignedURL{}, apperrors.MapError(err)
	}
	return slip, link, nil
}

// Download opens the PDF of a visible slip. The caller closes the reader.
func (s *SalarySlipService) Download(ctx context.Context, ac identity.AuthorizationContext, id string) (*domain.SalarySlip, io.ReadCloser, int64, error) {
	slip, err := s.Get(ctx, ac, id)
	if err != nil {
		return nil, nil, 0, err
	}
	body, size, err := s.store.Download(ctx, slip.FileRef)
	if err != nil {
		return nil, nil, 0, notFoundOr(err, "salary slip file", id)
	}
	return slip, body, size, nil
}

// OpenSigned resolves a signed download token to its object.
func (s *SalarySlipService) OpenSigned(ctx context.Context, token string) (string, io.ReadCloser, int64, error) {
	objectPath, err := s.store.VerifySignedToken(token)
	if err != nil {
		return "", nil, 0, err
	}
	body, size, err := s.store.Download(ctx, objectPath)
	if err != nil {
		return "", nil, 0, notFoundOr(err, "file", objectPath)
	}
	return objectPath, body, size, nil
}

// requirePDF accepts only application/pdf bodies that start with the PDF signature.
func requirePDF(input UploadInput) (io.Reader, error) {
	if input.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(input.ContentType)
		if err != nil || mediaType != pdfContentType {
			return nil, apperrors.NewValidationError("only PDF files are accepted", map[string]any{"content_type": input.ContentType})
		}
	}
	buffered := bufio.NewReader(input.Body)
	head, err := buffered.Peek(len(pdfMagic))
	if err != nil || !bytes.Equal(head, pdfMagic) {
		return nil, apperrors.NewValidationError("only PDF files are accepted", nil)
	}
	return buffered, nil
}

func cleanFileName(name, month string, year int) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return strings.ToLower(month) + "-" + strconv.Itoa(year) + ".pdf"
	}
	return base
}

func uploaderOf(ac identity.AuthorizationContext) *string {
	if p, ok := ac.Principal.(identity.RealPrincipal); ok {
		id := p.UserID
		return &id
	}
	return nil
}

func subjectTypeOf(ac identity.AuthorizationContext) domain.SubjectType {
	if ac.Principal == nil {
		return ""
	}
	return ac.Principal.SubjectType()
}
