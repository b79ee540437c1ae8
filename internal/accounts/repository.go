package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository persists accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the writes that create an account.
type TxRepository interface {
	InsertUser(ctx context.Context, u User) (User, error)
	InsertProfile(ctx context.Context, p Profile) (Profile, error)
	InsertNotificationSetting(ctx context.Context, n NotificationSetting) (NotificationSetting, error)
}

type txRepo struct {
	q db.DBTX
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

const userColumns = `id, username, email, first_name, last_name, password_hash, is_active, created_at, updated_at`

const profileColumns = `user_id, theme_preference, language_preference, receive_notifications, created_at, updated_at`

const settingColumns = `id, user_id, notification_type, email_enabled, push_enabled, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Theme, &p.Language, &p.ReceiveNotifications, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanSetting(row pgx.Row) (NotificationSetting, error) {
	var n NotificationSetting
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.EmailEnabled, &n.PushEnabled, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *txRepo) InsertUser(ctx context.Context, u User) (User, error) {
	out, err := scanUser(t.q.QueryRow(ctx, `INSERT INTO users (username, email, first_name, last_name, password_hash, is_active)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+userColumns,
		u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.IsActive))
	if err != nil {
		return User{}, shared.MapConstraintError(err, "username")
	}
	return out, nil
}

func (t *txRepo) InsertProfile(ctx context.Context, p Profile) (Profile, error) {
	return scanProfile(t.q.QueryRow(ctx, `INSERT INTO user_profiles (user_id, theme_preference, language_preference, receive_notifications)
VALUES ($1, $2, $3, $4) RETURNING `+profileColumns,
		p.UserID, string(p.Theme), p.Language, p.ReceiveNotifications))
}

func (t *txRepo) InsertNotificationSetting(ctx context.Context, n NotificationSetting) (NotificationSetting, error) {
	out, err := scanSetting(t.q.QueryRow(ctx, `INSERT INTO notification_settings (user_id, notification_type, email_enabled, push_enabled)
VALUES ($1, $2, $3, $4) RETURNING `+settingColumns,
		n.UserID, n.Type, n.EmailEnabled, n.PushEnabled))
	if err != nil {
		return NotificationSetting{}, shared.MapConstraintError(err, "notification_type")
	}
	return out, nil
}

// FindByUsername fetches a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NewNotFoundError("user", username)
	}
	return u, err
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.NewNotFoundError("user", id)
	}
	return u, err
}

// GetProfile fetches a user's profile.
func (r *Repository) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	p, err := scanProfile(r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id=$1`, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, shared.NewNotFoundError("profile", userID)
	}
	return p, err
}

// UpdateProfile rewrites a profile.
func (r *Repository) UpdateProfile(ctx context.Context, p Profile) (Profile, error) {
	out, err := scanProfile(r.pool.QueryRow(ctx, `UPDATE user_profiles
SET theme_preference=$2, language_preference=$3, receive_notifications=$4, updated_at=NOW()
WHERE user_id=$1 RETURNING `+profileColumns,
		p.UserID, string(p.Theme), p.Language, p.ReceiveNotifications))
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, shared.NewNotFoundError("profile", p.UserID)
	}
	return out, err
}

// ListNotificationSettings returns a user's settings ordered by type.
func (r *Repository) ListNotificationSettings(ctx context.Context, userID int64) ([]NotificationSetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingColumns+` FROM notification_settings WHERE user_id=$1 ORDER BY notification_type`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSetting)
}

// UpdateNotificationSetting toggles channels for one type.
func (r *Repository) UpdateNotificationSetting(ctx context.Context, n NotificationSetting) (NotificationSetting, error) {
	out, err := scanSetting(r.pool.QueryRow(ctx, `UPDATE notification_settings
SET email_enabled=$3, push_enabled=$4, updated_at=NOW()
WHERE user_id=$1 AND notification_type=$2 RETURNING `+settingColumns,
		n.UserID, n.Type, n.EmailEnabled, n.PushEnabled))
	if errors.Is(err, pgx.ErrNoRows) {
		return NotificationSetting{}, shared.NewNotFoundError("notification setting", n.Type)
	}
	return out, err
}

// InsertLoginAttempt appends login history.
func (r *Repository) InsertLoginAttempt(ctx context.Context, a LoginAttempt) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO login_history (user_id, login_at, ip_address, user_agent, success)
VALUES ($1, $2, NULLIF($3, '')::inet, $4, $5)`, a.UserID, a.At, a.IP, a.UserAgent, a.Success)
	return err
}

// ListLoginHistory returns a page of attempts, newest first.
func (r *Repository) ListLoginHistory(ctx context.Context, userID int64, page shared.Page) ([]LoginAttempt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_history WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, login_at, COALESCE(host(ip_address), ''), user_agent, success
FROM login_history WHERE user_id=$1 ORDER BY login_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows, func(row pgx.Row) (LoginAttempt, error) {
		var a LoginAttempt
		err := row.Scan(&a.ID, &a.UserID, &a.At, &a.IP, &a.UserAgent, &a.Success)
		return a, err
	})
	return out, total, err
}

// InsertActivity appends a user activity.
func (r *Repository) InsertActivity(ctx context.Context, a Activity) (Activity, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO user_activities (user_id, action, content_type, object_id, description, ip_address, occurred_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::inet, $7) RETURNING id`,
		a.UserID, string(a.Action), a.ContentType, a.ObjectID, a.Description, a.IP, a.At).Scan(&a.ID)
	if err != nil {
		return Activity{}, shared.MapConstraintError(err, "user_id")
	}
	return a, nil
}

// ListActivities returns a page of activities, newest first.
func (r *Repository) ListActivities(ctx context.Context, userID int64, page shared.Page) ([]Activity, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_activities WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, action, content_type, object_id, description, occurred_at, COALESCE(host(ip_address), '')
FROM user_activities WHERE user_id=$1 ORDER BY occurred_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows, func(row pgx.Row) (Activity, error) {
		var a Activity
		err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.ContentType, &a.ObjectID, &a.Description, &a.At, &a.IP)
		return a, err
	})
	return out, total, err
}
