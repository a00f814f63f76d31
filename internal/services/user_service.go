package services

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"inventory-api/internal/apperrors"
	"inventory-api/internal/models"
)

// MySQL duplicate-entry error, raised by the UNIQUE constraints when
// two signups race past the existence probes.
const mysqlErrDuplicateEntry = 1062

type UserService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewUserService(db *sql.DB, logger zerolog.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

// Signup validates the payload, enforces email/username uniqueness,
// hashes the password and persists the user.
func (s *UserService) Signup(req *models.SignupRequest) (*models.User, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	if req.UserType == "" {
		req.UserType = string(models.UserTypeUser)
	}

	var existingID int
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", req.Email).Scan(&existingID)
	if err == nil {
		return nil, apperrors.Conflict("Email already exists")
	} else if err != sql.ErrNoRows {
		s.logger.Error().Err(err).Msg("Error checking existing email")
		return nil, apperrors.Internal("Failed to create user")
	}

	err = s.db.QueryRow("SELECT id FROM users WHERE username = ?", req.Username).Scan(&existingID)
	if err == nil {
		return nil, apperrors.Conflict("Username already exists")
	} else if err != sql.ErrNoRows {
		s.logger.Error().Err(err).Msg("Error checking existing username")
		return nil, apperrors.Internal("Failed to create user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error hashing password")
		return nil, apperrors.Internal("Failed to create user")
	}

	result, err := s.db.Exec(
		"INSERT INTO users (username, email, password_hash, first_name, last_name, user_type) VALUES (?, ?, ?, ?, ?, ?)",
		req.Username, req.Email, string(hashedPassword), req.FirstName, req.LastName, req.UserType,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			s.logger.Warn().Str("email", req.Email).Msg("Signup lost uniqueness race")
			return nil, apperrors.Conflict("Email or username already exists")
		}
		s.logger.Error().Err(err).Msg("Error creating user")
		return nil, apperrors.Internal("Failed to create user")
	}

	userID, err := result.LastInsertId()
	if err != nil {
		s.logger.Error().Err(err).Msg("Error getting user ID")
		return nil, apperrors.Internal("Failed to create user")
	}

	user, err := s.GetUserByID(int(userID))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("user_id", user.ID).Str("email", user.Email).Msg("User registered successfully")
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown users and
// wrong passwords produce the same error so usernames cannot be
// enumerated.
func (s *UserService) Authenticate(req *models.LoginRequest) (*models.User, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	var user models.User
	var passwordHash string

	err := s.db.QueryRow(
		"SELECT id, username, email, password_hash, first_name, last_name, user_type, created_at, updated_at FROM users WHERE username = ?",
		req.Username,
	).Scan(
		&user.ID, &user.Username, &user.Email, &passwordHash,
		&user.FirstName, &user.LastName, &user.UserType, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.Unauthorized("Invalid username or password")
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Error querying user")
		return nil, apperrors.Internal("Failed to authenticate user")
	}

	err = bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password))
	if err != nil {
		s.logger.Warn().Str("username", req.Username).Msg("Failed authentication attempt")
		return nil, apperrors.Unauthorized("Invalid username or password")
	}

	s.logger.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("User authenticated successfully")
	return &user, nil
}

func (s *UserService) GetUserByID(userID int) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(
		"SELECT id, username, email, password_hash, first_name, last_name, user_type, created_at, updated_at FROM users WHERE id = ?",
		userID,
	).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.UserType, &user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("User not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("user_id", userID).Msg("Error fetching user")
		return nil, apperrors.Internal("Failed to fetch user")
	}

	return &user, nil
}
