package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindByUsername(ctx context.Context, username string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetProfile(ctx context.Context, userID int64) (Profile, error)
	UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	ListNotificationSettings(ctx context.Context, userID int64) ([]NotificationSetting, error)
	UpdateNotificationSetting(ctx context.Context, n NotificationSetting) (NotificationSetting, error)
	InsertLoginAttempt(ctx context.Context, a LoginAttempt) error
	ListLoginHistory(ctx context.Context, userID int64, page shared.Page) ([]LoginAttempt, int, error)
	InsertActivity(ctx context.Context, a Activity) (Activity, error)
	ListActivities(ctx context.Context, userID int64, page shared.Page) ([]Activity, int, error)
}

// ServiceConfig groups account settings.
type ServiceConfig struct {
	// NotificationTypes receive one default setting per new user.
	NotificationTypes []string
	BcryptCost        int
	Logger            *slog.Logger
}

// Service wraps account business rules.
type Service struct {
	repo              RepositoryPort
	notificationTypes []string
	cost              int
	logger            *slog.Logger
	now               func() time.Time
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	types := append([]string(nil), cfg.NotificationTypes...)
	return &Service{repo: repo, notificationTypes: types, cost: cost, logger: logger, now: time.Now}
}

// Account is a user with the rows created alongside it.
type Account struct {
	User          User                  `json:"user"`
	Profile       Profile               `json:"profile"`
	Notifications []NotificationSetting `json:"notifications"`
}

// CreateUser inserts the user, its default profile and one notification
// setting per configured type in a single transaction.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return Account{}, shared.NewValidationError("username", "is required")
	}
	if len(in.Password) < 8 {
		return Account{}, shared.NewValidationError("password", "must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	var account Account
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		user, err := tx.InsertUser(ctx, User{
			Username:     username,
			Email:        strings.TrimSpace(in.Email),
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			PasswordHash: string(hash),
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		profile, err := tx.InsertProfile(ctx, Profile{
			UserID:               user.ID,
			Theme:                ThemeLight,
			Language:             DefaultLanguage,
			ReceiveNotifications: true,
		})
		if err != nil {
			return fmt.Errorf("insert profile: %w", err)
		}
		settings := make([]NotificationSetting, 0, len(s.notificationTypes))
		for _, kind := range s.notificationTypes {
			setting, err := tx.InsertNotificationSetting(ctx, NotificationSetting{
				UserID:       user.ID,
				Type:         kind,
				EmailEnabled: true,
				PushEnabled:  true,
			})
			if err != nil {
				return fmt.Errorf("insert notification setting %s: %w", kind, err)
			}
			settings = append(settings, setting)
		}
		account = Account{User: user, Profile: profile, Notifications: settings}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.logger.Info("account created", slog.Int64("user_id", account.User.ID), slog.String("username", username))
	return account, nil
}

// Authenticate validates username/password credentials and records the
// attempt in login history when the user exists.
func (s *Service) Authenticate(ctx context.Context, username, password, ip, ua string) (User, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, shared.ErrInvalidCredentials
		}
		return User{}, err
	}
	success := user.IsActive && bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
	attempt := LoginAttempt{UserID: user.ID, At: s.now().UTC(), IP: ip, UserAgent: ua, Success: success}
	if err := s.repo.InsertLoginAttempt(ctx, attempt); err != nil {
		return User{}, fmt.Errorf("record login: %w", err)
	}
	if !success {
		return User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// GetProfile returns a user's preferences.
func (s *Service) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile changes theme, language or notification preference.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (Profile, error) {
	profile, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if in.Theme != nil {
		if !validTheme(*in.Theme) {
			return Profile{}, shared.NewValidationError("theme_preference", "must be one of LIGHT DARK")
		}
		profile.Theme = *in.Theme
	}
	if in.Language != nil {
		lang, err := NormalizeLanguage(*in.Language)
		if err != nil {
			return Profile{}, err
		}
		profile.Language = lang
	}
	if in.ReceiveNotifications != nil {
		profile.ReceiveNotifications = *in.ReceiveNotifications
	}
	return s.repo.UpdateProfile(ctx, profile)
}

// ListNotificationSettings returns a user's notification settings.
func (s *Service) ListNotificationSettings(ctx context.Context, userID int64) ([]NotificationSetting, error) {
	return s.repo.ListNotificationSettings(ctx, userID)
}

// UpdateNotificationSetting toggles channels for a configured type.
func (s *Service) UpdateNotificationSetting(ctx context.Context, userID int64, kind string, in NotificationInput) (NotificationSetting, error) {
	if !s.knownType(kind) {
		return NotificationSetting{}, shared.NewValidationError("notification_type", "must be one of "+strings.Join(s.notificationTypes, " "))
	}
	return s.repo.UpdateNotificationSetting(ctx, NotificationSetting{
		UserID:       userID,
		Type:         kind,
		EmailEnabled: in.EmailEnabled,
		PushEnabled:  in.PushEnabled,
	})
}

// ListLoginHistory returns a page of login attempts.
func (s *Service) ListLoginHistory(ctx context.Context, userID int64, page shared.Page) ([]LoginAttempt, shared.Pagination, error) {
	list, total, err := s.repo.ListLoginHistory(ctx, userID, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// RecordActivity appends an activity for userID.
func (s *Service) RecordActivity(ctx context.Context, userID int64, in ActivityInput) (Activity, error) {
	if !in.Action.Valid() {
		return Activity{}, shared.NewValidationError("action", "must be one of CREATE UPDATE DELETE VIEW EXPORT")
	}
	return s.repo.InsertActivity(ctx, Activity{
		UserID:      userID,
		Action:      in.Action,
		ContentType: strings.TrimSpace(in.ContentType),
		ObjectID:    strings.TrimSpace(in.ObjectID),
		Description: in.Description,
		At:          s.now().UTC(),
		IP:          shared.ClientFromContext(ctx).IP,
	})
}

// ListActivities returns a page of a user's activities.
func (s *Service) ListActivities(ctx context.Context, userID int64, page shared.Page) ([]Activity, shared.Pagination, error) {
	list, total, err := s.repo.ListActivities(ctx, userID, page)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(page.Page, page.PerPage, total), nil
}

func (s *Service) knownType(kind string) bool {
	for _, t := range s.notificationTypes {
		if t == kind {
			return true
		}
	}
	return false
}
