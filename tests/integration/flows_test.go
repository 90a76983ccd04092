package integration

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalauth "github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/models"
	"github.com/escola-solidaria/solidaria-api/internal/repositories"
	"github.com/escola-solidaria/solidaria-api/internal/services"
	pkglogger "github.com/escola-solidaria/solidaria-api/pkg/logger"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		// Container-backed tests only run when INTEGRATION is set
		os.Exit(0)
	}

	ctx := context.Background()
	var err error
	testDB, err = SetupTestDatabase(ctx)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Teardown(ctx)
	os.Exit(code)
}

func newServices(t *testing.T) (*services.StudentAuthService, *services.StudentService, *services.CardService, *repositories.StudentRepository) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditLogger := pkglogger.NewAuditLogger(logger)
	tokens := internalauth.NewTokenManager("integration-test-secret-key", time.Hour)

	studentRepo := repositories.NewStudentRepository(testDB.DB)
	formRepo := repositories.NewEnrollmentFormRepository(testDB.DB)
	cardRepo := repositories.NewCardRepository(testDB.DB)

	authService := services.NewStudentAuthService(studentRepo, tokens, logger, auditLogger)
	studentService := services.NewStudentService(studentRepo, formRepo, logger, auditLogger)
	cardService := services.NewCardService(cardRepo, studentRepo, logger, auditLogger)

	return authService, studentService, cardService, studentRepo
}

func TestStudentLoginFlow(t *testing.T) {
	ctx := context.Background()
	authService, _, _, studentRepo := newServices(t)

	handle, password := TestStudentCredentials("login")
	seeded, err := SeedStudent(ctx, testDB.Pool, handle, password)
	require.NoError(t, err)
	require.True(t, seeded.FirstLogin)

	token, session, err := authService.Login(ctx, handle, password, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, handle, session.Usuario)
	assert.False(t, session.PrimeiroAcesso, "first successful login clears the first-access flag")

	// The cleared flag survives a fresh read from the database
	student, err := studentRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, student.FirstLogin)
}

func TestStudentLockoutPersists(t *testing.T) {
	ctx := context.Background()
	authService, _, _, studentRepo := newServices(t)

	handle, password := TestStudentCredentials("lockout")
	seeded, err := SeedStudent(ctx, testDB.Pool, handle, password)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err = authService.Login(ctx, handle, "senha-errada", "127.0.0.1")
		require.Error(t, err)
	}

	// Lock state survives a fresh read from the database
	student, err := studentRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, student.FailedAttempts)
	require.NotNil(t, student.LockedUntil)
	assert.True(t, student.Locked(time.Now()))

	// Correct password is still refused while locked
	_, _, err = authService.Login(ctx, handle, password, "127.0.0.1")
	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
}

func TestEnrollmentAndCardFlow(t *testing.T) {
	ctx := context.Background()
	_, studentService, cardService, studentRepo := newServices(t)

	handle, password := TestStudentCredentials("enroll")
	seeded, err := SeedStudent(ctx, testDB.Pool, handle, password)
	require.NoError(t, err)

	// Enrollment requires the form and the documents first
	_, err = studentService.Enroll(ctx, seeded.ID)
	require.ErrorIs(t, err, models.ErrBadRequest)

	_, err = studentService.SubmitForm(ctx, seeded.ID, map[string]interface{}{"escolaAnterior": "pública"})
	require.NoError(t, err)
	require.NoError(t, studentRepo.SetDocsSubmitted(ctx, seeded.ID, true))

	enrolled, err := studentService.Enroll(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusEnrolled, enrolled.Status)
	assert.NotEmpty(t, enrolled.NumeroMatricula)

	// Card issuance snapshots the enrolled student
	card, err := cardService.Issue(ctx, seeded.ID, &models.EmergencyContact{Nome: "Maria", Telefone: "11 99999-0000"})
	require.NoError(t, err)
	assert.Contains(t, card.Number, "CART")
	assert.Equal(t, models.CardStatusActive, card.Status)

	qr, err := base64.StdEncoding.DecodeString(card.QRCode)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(qr[:4]))

	// Second issuance is refused
	_, err = cardService.Issue(ctx, seeded.ID, nil)
	require.ErrorIs(t, err, models.ErrConflict)

	// Public validation succeeds for the active card
	validation, err := cardService.Validate(ctx, card.Number)
	require.NoError(t, err)
	assert.True(t, validation.Valida)
}

func TestAdminAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	authService, _, _, _ := newServices(t)

	// Bootstrap the aluno-side admin and sign in with its credentials
	require.NoError(t, authService.EnsureAdminAccount(ctx, "admin", "Administrador", "escolasolidaria2024"))

	_, adminSession, err := authService.Login(ctx, "admin", "escolasolidaria2024", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, adminSession.Role)

	// The admin registers a second admin account, which can log in and see
	// its own role on the self profile
	handle, _ := TestStudentCredentials("carlos")
	registered, err := authService.Register(ctx, services.RegisterStudentRequest{
		Usuario:        handle,
		Senha:          "admin123",
		NomeCompleto:   "Carlos Admin",
		CPF:            fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000),
		DataNascimento: "1985-02-10",
		Role:           models.RoleAdmin,
	})
	require.NoError(t, err)

	_, _, err = authService.Login(ctx, handle, "admin123", "127.0.0.1")
	require.NoError(t, err)

	self, err := authService.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, handle, self.Usuario)
	assert.Equal(t, models.RoleAdmin, self.Role)
}

func TestPasswordResetRearmsFirstAccess(t *testing.T) {
	ctx := context.Background()
	authService, _, _, studentRepo := newServices(t)

	handle, password := TestStudentCredentials("reset")
	seeded, err := SeedStudent(ctx, testDB.Pool, handle, password)
	require.NoError(t, err)

	// First login clears the flag
	_, _, err = authService.Login(ctx, handle, password, "127.0.0.1")
	require.NoError(t, err)
	student, err := studentRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	require.False(t, student.FirstLogin)

	// An admin reset re-arms it
	returned, err := authService.ResetPassword(ctx, seeded.ID, "novaSenha123")
	require.NoError(t, err)
	assert.Equal(t, "novaSenha123", returned)

	student, err = studentRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.True(t, student.FirstLogin)

	// Logging in with the new password succeeds and clears it again
	_, session, err := authService.Login(ctx, handle, "novaSenha123", "127.0.0.1")
	require.NoError(t, err)
	assert.False(t, session.PrimeiroAcesso)

	student, err = studentRepo.GetByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.False(t, student.FirstLogin)
}
