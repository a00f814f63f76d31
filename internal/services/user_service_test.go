package services_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inventory-api/internal/apperrors"
	"inventory-api/internal/models"
	"inventory-api/internal/services"
)

const (
	selectUserByEmail    = "SELECT id FROM users WHERE email = ?"
	selectUserByUsername = "SELECT id FROM users WHERE username = ?"
	selectUserForLogin   = "SELECT id, username, email, password_hash, first_name, last_name, user_type, created_at, updated_at FROM users WHERE username = ?"
	selectUserByID       = "SELECT id, username, email, password_hash, first_name, last_name, user_type, created_at, updated_at FROM users WHERE id = ?"
	insertUser           = "INSERT INTO users (username, email, password_hash, first_name, last_name, user_type) VALUES (?, ?, ?, ?, ?, ?)"
)

type userServiceDeps struct {
	svc     *services.UserService
	mock    sqlmock.Sqlmock
	cleanup func()
}

func setupUserService(t *testing.T) *userServiceDeps {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	return &userServiceDeps{
		svc:  services.NewUserService(db, zerolog.Nop()),
		mock: mock,
		cleanup: func() {
			assert.NoError(t, mock.ExpectationsWereMet())
			db.Close()
		},
	}
}

func signupRequest() *models.SignupRequest {
	return &models.SignupRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "secret",
		FirstName: "Alice",
		LastName:  "Smith",
		UserType:  "User",
	}
}

func userRow(mock sqlmock.Sqlmock, hash string) *sqlmock.Rows {
	now := time.Now()
	return mock.NewRows([]string{
		"id", "username", "email", "password_hash", "first_name", "last_name", "user_type", "created_at", "updated_at",
	}).AddRow(1, "alice", "alice@example.com", hash, "Alice", "Smith", "User", now, now)
}

func TestSignupSuccess(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(selectUserByEmail).WithArgs("alice@example.com").WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery(selectUserByUsername).WithArgs("alice").WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectExec(insertUser).WillReturnResult(sqlmock.NewResult(1, 1))
	deps.mock.ExpectQuery(selectUserByID).WithArgs(1).WillReturnRows(userRow(deps.mock, "hash"))

	user, err := deps.svc.Signup(signupRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "User", user.UserType)
}

func TestSignupDefaultsUserType(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(selectUserByEmail).WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery(selectUserByUsername).WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectExec(insertUser).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg(), "Alice", "Smith", "User").
		WillReturnResult(sqlmock.NewResult(1, 1))
	deps.mock.ExpectQuery(selectUserByID).WithArgs(1).WillReturnRows(userRow(deps.mock, "hash"))

	req := signupRequest()
	req.UserType = ""

	_, err := deps.svc.Signup(req)
	require.NoError(t, err)
}

func TestSignupEmailConflict(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	// Conflict regardless of the other fields differing.
	deps.mock.ExpectQuery(selectUserByEmail).WithArgs("alice@example.com").
		WillReturnRows(deps.mock.NewRows([]string{"id"}).AddRow(7))

	req := signupRequest()
	req.Username = "completely-different"

	_, err := deps.svc.Signup(req)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "conflict", appErr.Code)
	assert.Equal(t, "Email already exists", appErr.Message)
	assert.Equal(t, 400, appErr.Status)
}

func TestSignupUsernameConflict(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(selectUserByEmail).WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery(selectUserByUsername).WithArgs("alice").
		WillReturnRows(deps.mock.NewRows([]string{"id"}).AddRow(7))

	_, err := deps.svc.Signup(signupRequest())

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "conflict", appErr.Code)
	assert.Equal(t, "Username already exists", appErr.Message)
}

// Two signups can race past the existence probes; the loser's INSERT
// trips the UNIQUE constraint and must still read as a conflict, not a
// server error.
func TestSignupInsertUniquenessRace(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(selectUserByEmail).WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectQuery(selectUserByUsername).WillReturnError(sql.ErrNoRows)
	deps.mock.ExpectExec(insertUser).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice@example.com' for key 'users.email'"})

	_, err := deps.svc.Signup(signupRequest())

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "conflict", appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.NotContains(t, appErr.Message, "Duplicate entry")
}

func TestSignupStoreErrorTextNotLeaked(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	deps.mock.ExpectQuery(selectUserByEmail).WillReturnError(errors.New("driver: bad connection"))

	_, err := deps.svc.Signup(signupRequest())

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 500, appErr.Status)
	assert.NotContains(t, appErr.Message, "bad connection")
}

func TestSignupValidationFailure(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	req := signupRequest()
	req.Email = "not-an-email"

	_, err := deps.svc.Signup(req)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "validation_failed", appErr.Code)
	assert.Contains(t, appErr.Fields, "email")
}

func TestAuthenticateSuccess(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	deps.mock.ExpectQuery(selectUserForLogin).WithArgs("alice").
		WillReturnRows(userRow(deps.mock, string(hash)))

	user, err := deps.svc.Authenticate(&models.LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

// Unknown usernames and wrong passwords must be indistinguishable.
func TestAuthenticateNoEnumeration(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	deps.mock.ExpectQuery(selectUserForLogin).WithArgs("nobody").WillReturnError(sql.ErrNoRows)
	_, unknownErr := deps.svc.Authenticate(&models.LoginRequest{Username: "nobody", Password: "secret"})

	deps.mock.ExpectQuery(selectUserForLogin).WithArgs("alice").
		WillReturnRows(userRow(deps.mock, string(hash)))
	_, wrongPassErr := deps.svc.Authenticate(&models.LoginRequest{Username: "alice", Password: "wrong"})

	var unknownAppErr, wrongPassAppErr *apperrors.Error
	require.True(t, errors.As(unknownErr, &unknownAppErr))
	require.True(t, errors.As(wrongPassErr, &wrongPassAppErr))

	assert.Equal(t, 401, unknownAppErr.Status)
	assert.Equal(t, 401, wrongPassAppErr.Status)
	assert.Equal(t, unknownAppErr.Message, wrongPassAppErr.Message)
	assert.Equal(t, "Invalid username or password", unknownAppErr.Message)
}

func TestAuthenticateMissingFields(t *testing.T) {
	deps := setupUserService(t)
	defer deps.cleanup()

	_, err := deps.svc.Authenticate(&models.LoginRequest{Username: "alice"})

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	assert.Contains(t, appErr.Fields, "password")
}
