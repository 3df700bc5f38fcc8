package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/employee-portal/internal/domain"
	"github.com/spec-kit/employee-portal/internal/events"
	"github.com/spec-kit/employee-portal/internal/identity"
	"github.com/spec-kit/employee-portal/internal/storage"
	apperrors "github.com/spec-kit/employee-portal/pkg/util"
)

const samplePDF = "%PDF-1.4\n1 0 obj <<>> endobj\ntrailer <<>>\n%%EOF\n"

type slipFixture struct {
	svc       *SalarySlipService
	slips     *memSlips
	employees *memEmployees
	uploaded  []events.SalarySlipUploadedPayload
}

func newSlipFixture(t *testing.T) *slipFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store, err := storage.NewLocalStore(t.TempDir(), storage.NewURLSigner("blob-secret", "http://portal.test"))
	require.NoError(t, err)

	f := &slipFixture{
		slips: &memSlips{},
		employees: newMemEmployees(
			&domain.EmployeeRecord{ID: "E42", Code: "EMP-042", Name: "Ana", Status: domain.EmployeeStatusActive},
			&domain.EmployeeRecord{ID: "E99", Code: "EMP-099", Name: "Zed", Status: domain.EmployeeStatusActive},
		),
	}
	dispatcher := events.NewInMemoryDispatcher(logger)
	dispatcher.Subscribe(events.EventSalarySlipUploaded, func(_ context.Context, e events.Event) error {
		f.uploaded = append(f.uploaded, e.Payload.(events.SalarySlipUploadedPayload))
		return nil
	})
	f.svc = NewSalarySlipService(SalarySlipDependencies{
		SlipRepo:     f.slips,
		EmployeeRepo: f.employees,
		Store:        store,
		Dispatcher:   dispatcher,
		Logger:       logger,
		LinkTTL:      5 * time.Minute,
		MaxBytes:     1 << 20,
	})
	return f
}

func pdfUpload(employeeRef, month string, year int) UploadInput {
	return UploadInput{
		EmployeeRef: employeeRef,
		Month:       month,
		Year:        year,
		FileName:    "slip.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(samplePDF)),
		Body:        strings.NewReader(samplePDF),
	}
}

func (f *slipFixture) upload(t *testing.T, employeeRef, month string, year int) *domain.SalarySlip {
	t.Helper()
	slip, err := f.svc.Upload(context.Background(), adminCtx(), pdfUpload(employeeRef, month, year))
	require.NoError(t, err)
	return slip
}

func TestSalarySlipService_AdminUpload(t *testing.T) {
	f := newSlipFixture(t)

	slip := f.upload(t, "E42", "march", 2024)
	require.Equal(t, "March", slip.Month)
	require.Equal(t, "salary-slips/E42/2024-03.pdf", slip.FileRef)
	require.Equal(t, int64(len(samplePDF)), slip.FileSize)
	require.Equal(t, "admin-1", *slip.UploadedBy)
	require.Len(t, f.uploaded, 1)
	require.Equal(t, "E42", f.uploaded[0].EmployeeRef)

	again := f.upload(t, "E42", "March", 2024)
	require.Equal(t, slip.ID, again.ID)
	count, err := f.slips.Count(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSalarySlipService_BypassUploadHasNoUploader(t *testing.T) {
	f := newSlipFixture(t)
	ac := identity.AuthorizationContext{
		Principal: identity.DevBypassPrincipal{Email: "demo@portal.local"},
		Role:      domain.RoleAdmin,
	}

	slip, err := f.svc.Upload(context.Background(), ac, pdfUpload("E42", "April", 2024))
	require.NoError(t, err)
	require.Nil(t, slip.UploadedBy)
}

func TestSalarySlipService_UploadRejections(t *testing.T) {
	f := newSlipFixture(t)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, employeeCtx(ptr("E42")), pdfUpload("E42", "March", 2024))
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	notPDF := pdfUpload("E42", "March", 2024)
	notPDF.ContentType = "image/png"
	_, err = f.svc.Upload(ctx, adminCtx(), notPDF)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	disguised := pdfUpload("E42", "March", 2024)
	disguised.Body = strings.NewReader("plain text pretending to be a pdf")
	_, err = f.svc.Upload(ctx, adminCtx(), disguised)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = f.svc.Upload(ctx, adminCtx(), pdfUpload("E42", "Smarch", 2024))
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = f.svc.Upload(ctx, adminCtx(), pdfUpload("E42", "March", 1999))
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	_, err = f.svc.Upload(ctx, adminCtx(), pdfUpload("E404", "March", 2024))
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	oversized := pdfUpload("E42", "March", 2024)
	oversized.Size = 2 << 20
	_, err = f.svc.Upload(ctx, adminCtx(), oversized)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	require.Empty(t, f.uploaded)
}

func (f *slipFixture) download(t *testing.T, id string) []byte {
	t.Helper()
	_, body, size, err := f.svc.Download(context.Background(), adminCtx(), id)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.EqualValues(t, len(data), size)
	return data
}

func TestSalarySlipService_OversizedReuploadKeepsPreviousSlip(t *testing.T) {
	f := newSlipFixture(t)
	slip := f.upload(t, "E42", "March", 2024)

	huge := pdfUpload("E42", "March", 2024)
	huge.Size = 0
	huge.Body = io.MultiReader(strings.NewReader(samplePDF), bytes.NewReader(make([]byte, 2<<20)))
	_, err := f.svc.Upload(context.Background(), adminCtx(), huge)
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	require.Equal(t, samplePDF, string(f.download(t, slip.ID)))
	stored, err := f.slips.GetByID(context.Background(), slip.ID)
	require.NoError(t, err)
	require.Equal(t, int64(len(samplePDF)), stored.FileSize)
	require.Len(t, f.uploaded, 1)
}

func TestSalarySlipService_FailedRowWriteKeepsPreviousBlob(t *testing.T) {
	f := newSlipFixture(t)
	slip := f.upload(t, "E42", "March", 2024)

	f.slips.upsertErr = errors.New("connection reset")
	replacement := pdfUpload("E42", "March", 2024)
	replacement.Body = strings.NewReader(samplePDF + "% second revision\n")
	_, err := f.svc.Upload(context.Background(), adminCtx(), replacement)
	require.Error(t, err)

	f.slips.upsertErr = nil
	require.Equal(t, samplePDF, string(f.download(t, slip.ID)))
}

func TestSalarySlipService_ListScopesEmployees(t *testing.T) {
	f := newSlipFixture(t)
	ctx := context.Background()
	f.upload(t, "E42", "January", 2024)
	f.upload(t, "E99", "January", 2024)
	f.upload(t, "E99", "February", 2024)

	all, err := f.svc.List(ctx, adminCtx(), SlipQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := f.svc.List(ctx, employeeCtx(ptr("E42")), SlipQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "E42", mine[0].EmployeeRef)
	require.Equal(t, "E42", *f.slips.lastFilter.EmployeeRef)

	other, err := f.svc.List(ctx, employeeCtx(ptr("E42")), SlipQuery{EmployeeRef: ptr("E99")})
	require.NoError(t, err)
	require.Empty(t, other)

	unlinked, err := f.svc.List(ctx, employeeCtx(nil), SlipQuery{})
	require.NoError(t, err)
	require.Empty(t, unlinked)

	january, err := f.svc.List(ctx, adminCtx(), SlipQuery{Month: ptr("january"), Year: ptr(2024)})
	require.NoError(t, err)
	require.Len(t, january, 2)

	_, err = f.svc.List(ctx, adminCtx(), SlipQuery{Month: ptr("13")})
	require.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSalarySlipService_GetHidesOtherEmployeesSlips(t *testing.T) {
	f := newSlipFixture(t)
	slip := f.upload(t, "E99", "May", 2024)

	_, err := f.svc.Get(context.Background(), employeeCtx(ptr("E42")), slip.ID)
	require.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	_, err = f.svc.Get(context.Background(), adminCtx(), "missing")
	require.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestSalarySlipService_DownloadAndSignedLink(t *testing.T) {
	f := newSlipFixture(t)
	ctx := context.Background()
	slip := f.upload(t, "E42", "June", 2024)
	owner := employeeCtx(ptr("E42"))

	_, body, size, err := f.svc.Download(ctx, owner, slip.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, int64(len(samplePDF)), size)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, link, err := f.svc.SignedLink(ctx, owner, slip.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, "http://portal.test/files/"))
	require.WithinDuration(t, time.Now().Add(5*time.Minute), link.ExpiresAt, 5*time.Second)

	objectPath, signedBody, _, err := f.svc.OpenSigned(ctx, link.Token)
	require.NoError(t, err)
	require.Equal(t, slip.FileRef, objectPath)
	require.NoError(t, signedBody.Close())

	_, _, _, err = f.svc.OpenSigned(ctx, link.Token+"tampered")
	require.Error(t, err)

	_, _, err = f.svc.SignedLink(ctx, employeeCtx(ptr("E99")), slip.ID)
	require.Error(t, err)
}
