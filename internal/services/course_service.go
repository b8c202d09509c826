package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/engtoolshub/engtools-backend/internal/entitlement"
	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseService struct {
	db       *gorm.DB
	resolver *entitlement.Resolver
}

func NewCourseService(db *gorm.DB, resolver *entitlement.Resolver) *CourseService {
	return &CourseService{db: db, resolver: resolver}
}

// List returns the catalog. Hidden courses are admin-only.
func (s *CourseService) List(user *models.User) ([]models.Course, error) {
	query := s.db.Order("category, title")
	if !user.IsAdmin() {
		query = query.Where("is_hidden = false")
	}
	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// Get returns one course; hidden courses answer not-found for non-admins.
func (s *CourseService) Get(user *models.User, id uuid.UUID) (*models.Course, error) {
	var course models.Course
	if err := s.db.First(&course, "id = ?", id).Error; err != nil {
		return nil, ErrCourseNotFound
	}
	if course.IsHidden && !user.IsAdmin() {
		return nil, ErrCourseNotFound
	}
	return &course, nil
}

// CheckAccess resolves the user's entitlement to the course. Hidden courses
// stay visible here for users holding an active purchase, so rule order is
// delegated entirely to the resolver.
func (s *CourseService) CheckAccess(ctx context.Context, user *models.User, id uuid.UUID) (*entitlement.CourseAccess, error) {
	var course models.Course
	if err := s.db.First(&course, "id = ?", id).Error; err != nil {
		return nil, ErrCourseNotFound
	}
	return s.resolver.CheckCourseAccess(ctx, user, &course)
}

func (s *CourseService) Create(course *models.Course) error {
	course.ID = uuid.New()
	if err := s.db.Create(course).Error; err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (s *CourseService) Update(id uuid.UUID, updated *models.Course) (*models.Course, error) {
	var course models.Course
	if err := s.db.First(&course, "id = ?", id).Error; err != nil {
		return nil, ErrCourseNotFound
	}

	course.Title = updated.Title
	course.Description = updated.Description
	course.Category = updated.Category
	course.Level = updated.Level
	course.RequiresPromoCode = updated.RequiresPromoCode
	course.Price = updated.Price
	course.IsHidden = updated.IsHidden

	if err := s.db.Save(&course).Error; err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return &course, nil
}

func (s *CourseService) Delete(id uuid.UUID) error {
	res := s.db.Delete(&models.Course{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}
