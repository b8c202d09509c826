package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/engtoolshub/engtools-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrThreadNotFound  = errors.New("chat thread not found")
	ErrThreadForbidden = errors.New("you do not have access to this chat thread")
	ErrThreadClosed    = errors.New("this chat thread is closed")
	ErrEmptyMessage    = errors.New("message body is required")
)

type ChatService struct {
	db *gorm.DB
}

func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

func (s *ChatService) CreateThread(userID uuid.UUID, subject, body string) (*models.ChatThread, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}

	now := time.Now()
	thread := models.ChatThread{
		ID:            uuid.New(),
		UserID:        userID,
		Subject:       subject,
		Status:        models.ThreadStatusOpen,
		LastMessageAt: now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&thread).Error; err != nil {
			return err
		}
		msg := models.ChatMessage{
			ID:         uuid.New(),
			ThreadID:   thread.ID,
			SenderID:   userID,
			Body:       body,
			ReadByUser: true,
		}
		return tx.Create(&msg).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}
	return &thread, nil
}

func (s *ChatService) ListThreads(userID uuid.UUID) ([]models.ChatThread, error) {
	var threads []models.ChatThread
	err := s.db.Where("user_id = ?", userID).Order("last_message_at DESC").Find(&threads).Error
	return threads, err
}

// ListAllThreads is the admin view across all users.
func (s *ChatService) ListAllThreads() ([]models.ChatThread, error) {
	var threads []models.ChatThread
	err := s.db.Order("last_message_at DESC").Find(&threads).Error
	return threads, err
}

// Messages returns a thread's messages and marks the other side's messages
// read for the requesting audience. Ownership is enforced before any read:
// non-admins only reach their own threads.
func (s *ChatService) Messages(user *models.User, threadID uuid.UUID) ([]models.ChatMessage, error) {
	thread, err := s.thread(threadID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && thread.UserID != user.ID {
		return nil, ErrThreadForbidden
	}

	var messages []models.ChatMessage
	if err := s.db.Where("thread_id = ?", threadID).Order("created_at").Find(&messages).Error; err != nil {
		return nil, err
	}

	readColumn := "read_by_user"
	fromAdmin := true
	if user.IsAdmin() {
		readColumn = "read_by_admin"
		fromAdmin = false
	}
	if err := s.db.Model(&models.ChatMessage{}).
		Where("thread_id = ? AND from_admin = ? AND "+readColumn+" = false", threadID, fromAdmin).
		Update(readColumn, true).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *ChatService) PostMessage(user *models.User, threadID uuid.UUID, body string) (*models.ChatMessage, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}

	thread, err := s.thread(threadID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() && thread.UserID != user.ID {
		return nil, ErrThreadForbidden
	}
	if thread.Status == models.ThreadStatusClosed {
		return nil, ErrThreadClosed
	}

	msg := models.ChatMessage{
		ID:        uuid.New(),
		ThreadID:  threadID,
		SenderID:  user.ID,
		FromAdmin: user.IsAdmin(),
		Body:      body,
	}
	if user.IsAdmin() {
		msg.ReadByAdmin = true
	} else {
		msg.ReadByUser = true
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		return tx.Model(thread).Update("last_message_at", time.Now()).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return &msg, nil
}

// CloseThread is admin-only (enforced at the route).
func (s *ChatService) CloseThread(threadID uuid.UUID) error {
	res := s.db.Model(&models.ChatThread{}).
		Where("id = ?", threadID).
		Update("status", models.ThreadStatusClosed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

func (s *ChatService) thread(id uuid.UUID) (*models.ChatThread, error) {
	var thread models.ChatThread
	if err := s.db.First(&thread, "id = ?", id).Error; err != nil {
		return nil, ErrThreadNotFound
	}
	return &thread, nil
}
