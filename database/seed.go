package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidAdminHash = errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAdmin creates the bootstrap admin from a pre-computed bcrypt hash.
// An existing admin with the same username is left untouched.
func (s *Seeder) SeedAdmin(ctx context.Context, username, passwordHash string) error {
	if passwordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, skipping admin bootstrap")
		return nil
	}
	if !auth.IsBcryptHash(passwordHash) {
		return ErrInvalidAdminHash
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Admin{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Infof("Admin %q already exists, skipping", username)
		return nil
	}

	admin := model.Admin{Username: username, PasswordHash: passwordHash}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	log.Infof("Admin %q created", username)
	return nil
}

// SeedSampleData inserts a small demo dataset. It does nothing if any subject exists.
func (s *Seeder) SeedSampleData(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Subject{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("Sample data already present, skipping")
		return nil
	}

	password, err := auth.HashPassword("password123")
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subjects := []model.Subject{
			{Name: "Calculus I", Professor: "Prof. Johnson", TeacherEmail: "johnson@example.com", Description: "Limits, derivatives and integrals."},
			{Name: "Introduction to Programming", Professor: "Prof. Martinez", TeacherEmail: "martinez@example.com", Description: "Programming fundamentals."},
			{Name: "General Physics", Professor: "Prof. Thompson", TeacherEmail: "thompson@example.com", Description: "Mechanics and thermodynamics."},
			{Name: "English Composition", Professor: "Prof. Williams", TeacherEmail: "williams@example.com", Description: "Academic writing."},
		}
		if err := tx.Create(&subjects).Error; err != nil {
			return fmt.Errorf("failed to seed subjects: %w", err)
		}

		student := model.Student{Username: "student1", Email: "john.doe@example.com", Name: "John Doe", Password: password}
		if err := tx.Create(&student).Error; err != nil {
			return fmt.Errorf("failed to seed student: %w", err)
		}

		today := time.Now().UTC().Truncate(24 * time.Hour)
		opening := datatypes.Date(today.AddDate(0, 0, -7))
		closing := datatypes.Date(today.AddDate(0, 3, 0))

		codes := []string{"MATH101", "CS105", "PHYS110", "ENG101"}
		for i, subject := range subjects {
			class := model.Class{Code: codes[i], Name: subject.Name + " - Lecture", SubjectID: subject.ID, OpeningDate: &opening, ClosingDate: &closing}
			if err := tx.Create(&class).Error; err != nil {
				return fmt.Errorf("failed to seed classes: %w", err)
			}

			assignment := model.Assignment{
				SubjectID:   subject.ID,
				Title:       "Homework 1",
				Description: "First problem set for " + subject.Name,
				DueDate:     today.AddDate(0, 0, 14),
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("failed to seed assignments: %w", err)
			}
		}

		for _, subject := range subjects[:2] {
			if err := tx.Create(&model.Enrollment{StudentID: student.ID, SubjectID: subject.ID}).Error; err != nil {
				return fmt.Errorf("failed to seed enrollments: %w", err)
			}
		}

		log.Info("Sample data seeded")
		return nil
	})
}
