// internal/domain/user/service_test.go
package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/school"
	"github.com/your-org/procurement-backend/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "procurement-test"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiry = 15 * time.Minute
	cfg.JWT.RefreshTokenExpiry = 24 * time.Hour
	cfg.Security.BcryptCost = bcrypt.MinCost
	return cfg
}

func newUserFixture(t *testing.T) (*Service, *gorm.DB, *config.Config) {
	t.Helper()
	dsn := "file:user_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&school.School{}, &User{}))

	cfg := testConfig()
	return NewService(db, cfg), db, cfg
}

func seedSchool(t *testing.T, db *gorm.DB, active bool) *school.School {
	t.Helper()
	sch := &school.School{
		Name:     "EMEF Monteiro Lobato",
		INEPCode: uuid.NewString()[:12],
		City:     "Campinas",
		State:    "SP",
		IsActive: active,
	}
	require.NoError(t, db.Create(sch).Error)
	return sch
}

func registerRequest(schoolID uint) *RegisterRequest {
	return &RegisterRequest{
		Email:           "merendeira@example.com",
		Password:        "Merenda#2026",
		ConfirmPassword: "Merenda#2026",
		FirstName:       "Maria",
		LastName:        "Silva",
		SchoolID:        schoolID,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, db, cfg := newUserFixture(t)
	sch := seedSchool(t, db, true)

	resp, err := svc.Register(registerRequest(sch.ID))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Empty(t, resp.User.Password)
	assert.Equal(t, sch.ID, resp.User.SchoolID)

	// Access token carries the school binding
	claims, err := auth.NewJWTManager(cfg).ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, sch.ID, claims.SchoolID)

	login, err := svc.Login(&LoginRequest{Email: "merendeira@example.com", Password: "Merenda#2026"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(&LoginRequest{Email: "merendeira@example.com", Password: "Wrong#Pass9"})
	require.Error(t, err)
}

func TestRegisterRejectsUnknownSchool(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Register(registerRequest(999))
	require.Error(t, err)
}

func TestRegisterRejectsInactiveSchool(t *testing.T) {
	svc, db, _ := newUserFixture(t)
	sch := seedSchool(t, db, false)

	_, err := svc.Register(registerRequest(sch.ID))
	require.Error(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, db, _ := newUserFixture(t)
	sch := seedSchool(t, db, true)

	_, err := svc.Register(registerRequest(sch.ID))
	require.NoError(t, err)

	_, err = svc.Register(registerRequest(sch.ID))
	require.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc, db, _ := newUserFixture(t)
	sch := seedSchool(t, db, true)

	resp, err := svc.Register(registerRequest(sch.ID))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// Access tokens are not accepted as refresh tokens
	_, err = svc.RefreshToken(resp.AccessToken)
	require.Error(t, err)
}

func TestChangePassword(t *testing.T) {
	svc, db, _ := newUserFixture(t)
	sch := seedSchool(t, db, true)

	resp, err := svc.Register(registerRequest(sch.ID))
	require.NoError(t, err)

	err = svc.ChangePassword(resp.User.ID, "Merenda#2026", "Cantina!2027")
	require.NoError(t, err)

	_, err = svc.Login(&LoginRequest{Email: "merendeira@example.com", Password: "Merenda#2026"})
	require.Error(t, err)

	_, err = svc.Login(&LoginRequest{Email: "merendeira@example.com", Password: "Cantina!2027"})
	require.NoError(t, err)
}
