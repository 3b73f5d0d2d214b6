package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/d-valsamis/student-portal/database"
	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/apperror"
	"github.com/d-valsamis/student-portal/utils/auth"
	"gorm.io/gorm"
)

const invalidCredentials = "Invalid username or password"

var verifyPassword = auth.VerifyPassword

// missingUserHash is compared against when the username does not exist so
// unknown and known usernames cost the same bcrypt work.
var missingUserHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("no-such-user-placeholder")
	if err != nil {
		panic(fmt.Sprintf("hash placeholder password: %v", err))
	}
	return hash
})

// AuthService issues and revokes tokens for students and admins.
type AuthService struct {
	db         *gorm.DB
	jwtManager *auth.JWTManager
	blacklist  *auth.BlacklistService
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, jwtManager *auth.JWTManager, blacklist *auth.BlacklistService) *AuthService {
	return &AuthService{
		db:         db,
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// LoginRequest is the body of both login endpoints.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResult carries the token and the authenticated identity.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Student   *model.Student `json:"student,omitempty"`
	Admin     *model.Admin   `json:"admin,omitempty"`
}

// StudentLogin checks a student's credentials and issues a student token.
func (s *AuthService) StudentLogin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var student model.Student
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = verifyPassword(missingUserHash(), req.Password)
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, database.MapError(err, "")
	}

	if err := checkPassword(student.Password, req.Password); err != nil {
		return nil, err
	}

	token, _, expiresAt, err := s.jwtManager.GenerateToken(student.ID, student.Username, auth.RoleStudent)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("generate token: %w", err))
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Student: &student}, nil
}

// AdminLogin checks credentials against the admins table and issues an admin token.
func (s *AuthService) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var admin model.Admin
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = verifyPassword(missingUserHash(), req.Password)
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, database.MapError(err, "")
	}

	if err := checkPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, _, expiresAt, err := s.jwtManager.GenerateToken(admin.ID, admin.Username, auth.RoleAdmin)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("generate token: %w", err))
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: &admin}, nil
}

func checkPassword(hash, password string) error {
	err := verifyPassword(hash, password)
	if errors.Is(err, auth.ErrPasswordMismatch) {
		return apperror.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return apperror.Internal(fmt.Errorf("verify password: %w", err))
	}
	return nil
}

// Logout revokes the token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.blacklist.RevokeToken(ctx, claims, "logout"); err != nil {
		return apperror.Internal(fmt.Errorf("revoke token: %w", err))
	}
	return nil
}

// Identity is the caller behind a token.
type Identity struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Me resolves the token's subject. A deleted account is a NotFound error.
func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*Identity, error) {
	if claims.Role == auth.RoleAdmin {
		var admin model.Admin
		if err := s.db.WithContext(ctx).First(&admin, claims.SubjectID).Error; err != nil {
			return nil, database.MapError(err, "Admin not found")
		}
		return &Identity{ID: admin.ID, Username: admin.Username, Role: auth.RoleAdmin}, nil
	}

	var student model.Student
	if err := s.db.WithContext(ctx).First(&student, claims.SubjectID).Error; err != nil {
		return nil, database.MapError(err, "Student not found")
	}
	return &Identity{
		ID:       student.ID,
		Username: student.Username,
		Role:     auth.RoleStudent,
		Name:     student.Name,
		Email:    student.Email,
	}, nil
}
