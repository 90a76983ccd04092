package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	"github.com/stretchr/testify/assert"
)

// newTestRequest creates an HTTP request with a JSON body for testing
func newTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withStudentPrincipal attaches a student session to the request context
func withStudentPrincipal(req *http.Request, id string) *http.Request {
	p := &auth.Principal{ID: id, Handle: "joao.silva", Kind: auth.KindStudent, Role: models.RoleStudent, Active: true}
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

// withStaffPrincipal attaches a staff session to the request context
func withStaffPrincipal(req *http.Request, id, role string) *http.Request {
	p := &auth.Principal{ID: id, Email: "carlos@escola.org", Kind: auth.KindStaff, Role: role, Active: true}
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

// decodeBody decodes the recorded JSON response into a generic map
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// Mock services with configurable function fields

type MockStudentAuthService struct {
	LoginFunc          func(ctx context.Context, handle, password, ipAddress string) (string, *services.StudentSessionResponse, error)
	MeFunc             func(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	ChangePasswordFunc func(ctx context.Context, id, currentPassword, newPassword string) error
	RegisterFunc       func(ctx context.Context, req services.RegisterStudentRequest) (*services.StudentSessionResponse, error)
	ResetPasswordFunc  func(ctx context.Context, targetID, newPassword string) (string, error)
}

func (m *MockStudentAuthService) Login(ctx context.Context, handle, password, ipAddress string) (string, *services.StudentSessionResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, handle, password, ipAddress)
	}
	return "", nil, models.ErrUnauthorized
}

func (m *MockStudentAuthService) Me(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentAuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, id, currentPassword, newPassword)
	}
	return models.ErrInternalServer
}

func (m *MockStudentAuthService) Register(ctx context.Context, req services.RegisterStudentRequest) (*services.StudentSessionResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentAuthService) ResetPassword(ctx context.Context, targetID, newPassword string) (string, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, targetID, newPassword)
	}
	return "", models.ErrInternalServer
}

type MockStudentService struct {
	ListFunc       func(ctx context.Context, filter repositories.StudentFilter) (*services.StudentListResponse, error)
	GetFunc        func(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	UpdateFunc     func(ctx context.Context, id string, req services.UpdateStudentRequest) (*services.StudentSessionResponse, error)
	EnrollFunc     func(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	DeactivateFunc func(ctx context.Context, id string) error
	ReactivateFunc func(ctx context.Context, id string) (*services.StudentSessionResponse, error)
	StatsFunc      func(ctx context.Context) (*services.StudentStatsResponse, error)
	SubmitFormFunc func(ctx context.Context, studentID string, payload map[string]interface{}) (*models.EnrollmentForm, error)
	GetFormFunc    func(ctx context.Context, studentID string) (*models.EnrollmentForm, error)
}

func (m *MockStudentService) List(ctx context.Context, filter repositories.StudentFilter) (*services.StudentListResponse, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) Get(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentService) Update(ctx context.Context, id string, req services.UpdateStudentRequest) (*services.StudentSessionResponse, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) Enroll(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
	if m.EnrollFunc != nil {
		return m.EnrollFunc(ctx, id)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) Deactivate(ctx context.Context, id string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, id)
	}
	return models.ErrInternalServer
}

func (m *MockStudentService) Reactivate(ctx context.Context, id string) (*services.StudentSessionResponse, error) {
	if m.ReactivateFunc != nil {
		return m.ReactivateFunc(ctx, id)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) Stats(ctx context.Context) (*services.StudentStatsResponse, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) SubmitForm(ctx context.Context, studentID string, payload map[string]interface{}) (*models.EnrollmentForm, error) {
	if m.SubmitFormFunc != nil {
		return m.SubmitFormFunc(ctx, studentID, payload)
	}
	return nil, models.ErrInternalServer
}

func (m *MockStudentService) GetForm(ctx context.Context, studentID string) (*models.EnrollmentForm, error) {
	if m.GetFormFunc != nil {
		return m.GetFormFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

type MockStaffAuthService struct {
	LoginFunc         func(ctx context.Context, email, password, ipAddress string) (string, *services.StaffUserResponse, error)
	MeFunc            func(ctx context.Context, id string) (*services.StaffUserResponse, error)
	UpdateProfileFunc func(ctx context.Context, id string, req services.UpdateProfileRequest) (*services.StaffUserResponse, error)
}

func (m *MockStaffAuthService) Login(ctx context.Context, email, password, ipAddress string) (string, *services.StaffUserResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password, ipAddress)
	}
	return "", nil, models.ErrUnauthorized
}

func (m *MockStaffAuthService) Me(ctx context.Context, id string) (*services.StaffUserResponse, error) {
	if m.MeFunc != nil {
		return m.MeFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockStaffAuthService) UpdateProfile(ctx context.Context, id string, req services.UpdateProfileRequest) (*services.StaffUserResponse, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, req)
	}
	return nil, models.ErrInternalServer
}

type MockCardService struct {
	IssueFunc        func(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error)
	GetByStudentFunc func(ctx context.Context, studentID string) (*models.MemberCard, error)
	SyncFunc         func(ctx context.Context, studentID string) (*models.MemberCard, error)
	RenewFunc        func(ctx context.Context, studentID string) (*models.MemberCard, error)
	UpdateStatusFunc func(ctx context.Context, studentID, status string) (*models.MemberCard, error)
	ValidateFunc     func(ctx context.Context, number string) (*services.CardValidationResponse, error)
}

func (m *MockCardService) Issue(ctx context.Context, studentID string, emergency *models.EmergencyContact) (*models.MemberCard, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, studentID, emergency)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardService) GetByStudent(ctx context.Context, studentID string) (*models.MemberCard, error) {
	if m.GetByStudentFunc != nil {
		return m.GetByStudentFunc(ctx, studentID)
	}
	return nil, models.ErrNotFound
}

func (m *MockCardService) Sync(ctx context.Context, studentID string) (*models.MemberCard, error) {
	if m.SyncFunc != nil {
		return m.SyncFunc(ctx, studentID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardService) Renew(ctx context.Context, studentID string) (*models.MemberCard, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, studentID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardService) UpdateStatus(ctx context.Context, studentID, status string) (*models.MemberCard, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, studentID, status)
	}
	return nil, models.ErrInternalServer
}

func (m *MockCardService) Validate(ctx context.Context, number string) (*services.CardValidationResponse, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, number)
	}
	return nil, models.ErrNotFound
}

type MockDonationService struct {
	CreateFunc     func(ctx context.Context, req services.DonationRequest, createdBy string) (*models.Donation, error)
	UpdateFunc     func(ctx context.Context, id string, req services.DonationRequest, updatedBy string) (*models.Donation, error)
	GetFunc        func(ctx context.Context, id string) (*models.Donation, error)
	ListFunc       func(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error)
	ListPublicFunc func(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error)
	GetPublicFunc  func(ctx context.Context, id string, includeHidden bool) (*models.Donation, error)
	DeleteFunc     func(ctx context.Context, id string) error
	SummaryFunc    func(ctx context.Context, year int) (*services.DonationSummaryResponse, error)
}

func (m *MockDonationService) Create(ctx context.Context, req services.DonationRequest, createdBy string) (*models.Donation, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req, createdBy)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationService) Update(ctx context.Context, id string, req services.DonationRequest, updatedBy string) (*models.Donation, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, req, updatedBy)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationService) Get(ctx context.Context, id string) (*models.Donation, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDonationService) List(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationService) ListPublic(ctx context.Context, filter repositories.DonationFilter) (*services.DonationListResponse, error) {
	if m.ListPublicFunc != nil {
		return m.ListPublicFunc(ctx, filter)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDonationService) GetPublic(ctx context.Context, id string, includeHidden bool) (*models.Donation, error) {
	if m.GetPublicFunc != nil {
		return m.GetPublicFunc(ctx, id, includeHidden)
	}
	return nil, models.ErrNotFound
}

func (m *MockDonationService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return models.ErrInternalServer
}

func (m *MockDonationService) Summary(ctx context.Context, year int) (*services.DonationSummaryResponse, error) {
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx, year)
	}
	return nil, models.ErrInternalServer
}

type MockHomeService struct {
	GetPublicFunc     func(ctx context.Context) (*models.HomeContent, error)
	GetFunc           func(ctx context.Context) (*models.HomeContent, error)
	UpdateFunc        func(ctx context.Context, incoming *models.HomeContent) (*models.HomeContent, error)
	UpdateSectionFunc func(ctx context.Context, section string, payload json.RawMessage) (*models.HomeContent, error)
	PublishFunc       func(ctx context.Context, publishedBy string) (*models.HomeContent, error)
}

func (m *MockHomeService) GetPublic(ctx context.Context) (*models.HomeContent, error) {
	if m.GetPublicFunc != nil {
		return m.GetPublicFunc(ctx)
	}
	return nil, models.ErrInternalServer
}

func (m *MockHomeService) Get(ctx context.Context) (*models.HomeContent, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return nil, models.ErrInternalServer
}

func (m *MockHomeService) Update(ctx context.Context, incoming *models.HomeContent) (*models.HomeContent, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, incoming)
	}
	return nil, models.ErrInternalServer
}

func (m *MockHomeService) UpdateSection(ctx context.Context, section string, payload json.RawMessage) (*models.HomeContent, error) {
	if m.UpdateSectionFunc != nil {
		return m.UpdateSectionFunc(ctx, section, payload)
	}
	return nil, models.ErrInternalServer
}

func (m *MockHomeService) Publish(ctx context.Context, publishedBy string) (*models.HomeContent, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, publishedBy)
	}
	return nil, models.ErrInternalServer
}

type MockDocumentService struct {
	UploadFunc        func(ctx context.Context, studentID string, req services.UploadDocumentRequest) (*models.Document, error)
	GetFunc           func(ctx context.Context, id string) (*models.Document, error)
	ListByStudentFunc func(ctx context.Context, studentID string) ([]models.DocumentSummary, error)
	ReviewFunc        func(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error)
	DeleteFunc        func(ctx context.Context, id string) error
}

func (m *MockDocumentService) Upload(ctx context.Context, studentID string, req services.UploadDocumentRequest) (*models.Document, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, studentID, req)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDocumentService) ListByStudent(ctx context.Context, studentID string) ([]models.DocumentSummary, error) {
	if m.ListByStudentFunc != nil {
		return m.ListByStudentFunc(ctx, studentID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentService) Review(ctx context.Context, id, status, reason, reviewerID string) (*models.Document, error) {
	if m.ReviewFunc != nil {
		return m.ReviewFunc(ctx, id, status, reason, reviewerID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return models.ErrInternalServer
}
