package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"letter-workflow-api/config"
	"letter-workflow-api/models"
	"letter-workflow-api/utils"

	"gorm.io/gorm"
)

// NotificationService persists in-app notifications and sends email for
// workflow transitions. Delivery is best-effort and asynchronous; the
// workflow transaction never waits on it.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyTransition fans out notifications after a committed transition: the
// role now responsible for the letter, and the applicant on anything that
// ends or interrupts the review.
func (n *NotificationService) NotifyTransition(ctx context.Context, letter *models.Letter, action, note string) {
	ctx = persistentContext(ctx)
	go func() {
		if err := n.notifyTransition(ctx, letter, action, note); err != nil {
			log.Printf("Warning: failed to deliver notifications for letter %d: %v", letter.LetterID, err)
		}
	}()
}

func (n *NotificationService) notifyTransition(ctx context.Context, letter *models.Letter, action, note string) error {
	title, message, notifType := transitionMessage(letter, action, note)

	recipients, err := n.transitionRecipients(ctx, letter)
	if err != nil {
		return err
	}

	now := time.Now()
	letterID := letter.LetterID
	emails := make([]string, 0, len(recipients))
	for _, user := range recipients {
		notification := models.Notification{
			UserID:          user.UserID,
			Title:           title,
			Message:         message,
			Type:            notifType,
			RelatedLetterID: &letterID,
			CreatedAt:       now,
		}
		if err := n.db.WithContext(ctx).Create(&notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
		if user.Email != "" {
			emails = append(emails, user.Email)
		}
	}

	if len(emails) > 0 {
		body := fmt.Sprintf("<p>%s</p><p>%s</p><p>Tanggal: %s</p>",
			title, message, utils.FormatIndonesianDate(now))
		if err := config.SendMail(emails, title, body); err != nil {
			log.Printf("Warning: failed to send notification mail for letter %d: %v", letter.LetterID, err)
		}
	}

	return nil
}

// transitionRecipients resolves who should hear about the new state: the
// users holding the role at the letter's current step, plus the applicant
// when the review ended or was sent back to them.
func (n *NotificationService) transitionRecipients(ctx context.Context, letter *models.Letter) ([]models.User, error) {
	var recipients []models.User

	switch letter.Status {
	case models.LetterStatusCompleted, models.LetterStatusRejected:
		var applicant models.User
		if err := n.db.WithContext(ctx).
			Where("user_id = ? AND deleted_at IS NULL", letter.ApplicantID).
			First(&applicant).Error; err == nil {
			recipients = append(recipients, applicant)
		}
	case models.LetterStatusInReview, models.LetterStatusRevisionRequested:
		role, err := RoleOf(letter.CurrentStep)
		if err != nil {
			return nil, err
		}
		if role == RoleApplicant {
			var applicant models.User
			if err := n.db.WithContext(ctx).
				Where("user_id = ? AND deleted_at IS NULL", letter.ApplicantID).
				First(&applicant).Error; err == nil {
				recipients = append(recipients, applicant)
			}
			break
		}
		var reviewers []models.User
		if err := n.db.WithContext(ctx).
			Where("role = ? AND deleted_at IS NULL", string(role)).
			Find(&reviewers).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve reviewers: %w", err)
		}
		recipients = append(recipients, reviewers...)
	}

	return recipients, nil
}

func transitionMessage(letter *models.Letter, action, note string) (title, message, notifType string) {
	switch letter.Status {
	case models.LetterStatusCompleted:
		number := ""
		if letter.LetterNumber != nil {
			number = *letter.LetterNumber
		}
		return "Surat rekomendasi diterbitkan",
			fmt.Sprintf("Surat rekomendasi Anda telah diterbitkan dengan nomor %s.", number),
			"success"
	case models.LetterStatusRejected:
		return "Pengajuan surat ditolak",
			fmt.Sprintf("Pengajuan surat rekomendasi Anda ditolak. Alasan: %s", note),
			"error"
	case models.LetterStatusRevisionRequested:
		return "Revisi diminta",
			fmt.Sprintf("Pengajuan surat #%d dikembalikan untuk revisi. Catatan: %s", letter.LetterID, note),
			"warning"
	default:
		if action == models.ActionSubmit || action == models.ActionResubmit {
			return "Pengajuan surat masuk",
				fmt.Sprintf("Pengajuan surat #%d menunggu tindakan Anda.", letter.LetterID),
				"info"
		}
		return "Pengajuan surat diteruskan",
			fmt.Sprintf("Pengajuan surat #%d telah disetujui dan menunggu tindakan Anda.", letter.LetterID),
			"info"
	}
}

// ListForUser returns a user's notifications, newest first.
func (n *NotificationService) ListForUser(ctx context.Context, userID int, unreadOnly bool) ([]models.Notification, error) {
	query := n.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = 0")
	}

	var notifications []models.Notification
	if err := query.Order("notification_id DESC").Limit(100).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one notification as read for its owner.
func (n *NotificationService) MarkRead(ctx context.Context, userID int, notificationID uint) error {
	now := time.Now()
	result := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "updated_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification for the user.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID int) error {
	now := time.Now()
	if err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = 0", userID).
		Updates(map[string]interface{}{"is_read": true, "updated_at": now}).Error; err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
