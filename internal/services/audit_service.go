package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/models"
	"github.com/Olwin8/242034Y-FreshFarmMarket/internal/repositories"
	"github.com/google/uuid"
)

// Auditor receives structured security events. Emission is best-effort:
// implementations must never block the calling flow or surface their own
// failures to it. Losing an event is preferred over failing a login.
type Auditor interface {
	LoginAttempt(email string, success bool, ipAddress, userAgent string, userID *uuid.UUID, additionalInfo string)
	SecurityEvent(userID *uuid.UUID, email, action, description, ipAddress, userAgent string)
}

// AuditService buffers events on a channel and persists them from a single
// background goroutine. When the buffer is full the event is dropped and
// counted; sink errors are logged and swallowed.
type AuditService struct {
	repo repositories.AuditLogRepository
	ch   chan models.AuditLog
	done chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   int64
	droppedMu sync.Mutex
}

func NewAuditService(repo repositories.AuditLogRepository, bufferSize int) *AuditService {
	if bufferSize <= 0 {
		bufferSize = 1
	}

	s := &AuditService{
		repo: repo,
		ch:   make(chan models.AuditLog, bufferSize),
		done: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *AuditService) run() {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.ch:
			s.persist(event)
		case <-s.done:
			for {
				select {
				case event := <-s.ch:
					s.persist(event)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) persist(event models.AuditLog) {
	if err := s.repo.Create(&event); err != nil {
		slog.Error("failed to persist audit event",
			slog.String("action", event.Action),
			slog.String("error", err.Error()))
	}
}

func (s *AuditService) emit(event models.AuditLog) {
	select {
	case s.ch <- event:
	case <-s.done:
	default:
		s.droppedMu.Lock()
		s.dropped++
		dropped := s.dropped
		s.droppedMu.Unlock()
		slog.Warn("audit buffer full, event dropped",
			slog.String("action", event.Action),
			slog.Int64("dropped_total", dropped))
	}
}

func (s *AuditService) LoginAttempt(email string, success bool, ipAddress, userAgent string, userID *uuid.UUID, additionalInfo string) {
	action := models.AuditLoginFailed
	description := "Failed login attempt"
	if success {
		action = models.AuditLoginSuccess
		description = "Successful login"
	}
	if additionalInfo != "" && !success {
		description += ": " + additionalInfo
	}

	var extra *string
	if additionalInfo != "" {
		extra = &additionalInfo
	}

	s.emit(models.AuditLog{
		UserID:         userID,
		Email:          email,
		Action:         action,
		Description:    description,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		Timestamp:      time.Now().UTC(),
		Success:        success,
		AdditionalInfo: extra,
	})
}

func (s *AuditService) SecurityEvent(userID *uuid.UUID, email, action, description, ipAddress, userAgent string) {
	s.emit(models.AuditLog{
		UserID:      userID,
		Email:       email,
		Action:      action,
		Description: description,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Timestamp:   time.Now().UTC(),
		Success:     true,
	})
}

// Close drains whatever is buffered and stops the background writer.
func (s *AuditService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}
