package accounts

import "time"

// Theme enumerates UI themes.
type Theme string

const (
	ThemeLight Theme = "LIGHT"
	ThemeDark  Theme = "DARK"
)

// ActivityAction enumerates tracked user actions.
type ActivityAction string

const (
	ActionCreate ActivityAction = "CREATE"
	ActionUpdate ActivityAction = "UPDATE"
	ActionDelete ActivityAction = "DELETE"
	ActionView   ActivityAction = "VIEW"
	ActionExport ActivityAction = "EXPORT"
)

// Valid reports whether a is a known action.
func (a ActivityAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionView, ActionExport:
		return true
	}
	return false
}

// User represents an account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile stores per-user preferences.
type Profile struct {
	UserID               int64     `json:"user_id"`
	Theme                Theme     `json:"theme_preference"`
	Language             string    `json:"language_preference"`
	ReceiveNotifications bool      `json:"receive_notifications"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NotificationSetting toggles channels for one notification type.
type NotificationSetting struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Type         string    `json:"notification_type"`
	EmailEnabled bool      `json:"email_enabled"`
	PushEnabled  bool      `json:"push_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LoginAttempt is one row of login history.
type LoginAttempt struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	At        time.Time `json:"login_at"`
	IP        string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent"`
	Success   bool      `json:"success"`
}

// Activity is a tracked user action on some object.
type Activity struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Action      ActivityAction `json:"action"`
	ContentType string         `json:"content_type"`
	ObjectID    string         `json:"object_id"`
	Description string         `json:"description"`
	At          time.Time      `json:"timestamp"`
	IP          string         `json:"ip_address,omitempty"`
}

// CreateUserInput registers a user.
type CreateUserInput struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput carries credentials.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput updates preferences. Omitted fields keep their value.
type ProfileInput struct {
	Theme                *Theme  `json:"theme_preference,omitempty"`
	Language             *string `json:"language_preference,omitempty"`
	ReceiveNotifications *bool   `json:"receive_notifications,omitempty"`
}

// NotificationInput toggles channels.
type NotificationInput struct {
	EmailEnabled bool `json:"email_enabled"`
	PushEnabled  bool `json:"push_enabled"`
}

// ActivityInput records an activity for a user.
type ActivityInput struct {
	Action      ActivityAction `json:"action" validate:"required"`
	ContentType string         `json:"content_type" validate:"required,max=100"`
	ObjectID    string         `json:"object_id" validate:"required,max=100"`
	Description string         `json:"description"`
}
