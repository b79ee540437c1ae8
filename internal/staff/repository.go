package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository persists staff data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const employeeColumns = `id, user_id, position, phone, address, emergency_contact, emergency_phone, date_hired, hourly_rate, is_active, created_at, updated_at`

const scheduleColumns = `id, employee_id, shift_date, shift, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'), notes, created_at, updated_at`

const attendanceColumns = `id, employee_id, schedule_id, check_in, check_out, status, notes, created_at, updated_at`

const leaveColumns = `id, employee_id, leave_type, start_date, end_date, reason, status, approved_by, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var (
		e     Employee
		hired time.Time
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Position, &e.Phone, &e.Address, &e.EmergencyContact, &e.EmergencyPhone,
		&hired, &e.HourlyRate, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	e.DateHired = shared.DateOf(hired)
	return e, err
}

func scanSchedule(row pgx.Row) (Schedule, error) {
	var (
		s   Schedule
		day time.Time
	)
	err := row.Scan(&s.ID, &s.EmployeeID, &day, &s.Shift, &s.StartTime, &s.EndTime, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	s.Date = shared.DateOf(day)
	return s, err
}

func scanAttendance(row pgx.Row) (Attendance, error) {
	var a Attendance
	err := row.Scan(&a.ID, &a.EmployeeID, &a.ScheduleID, &a.CheckIn, &a.CheckOut, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanLeave(row pgx.Row) (Leave, error) {
	var (
		l          Leave
		start, end time.Time
	)
	err := row.Scan(&l.ID, &l.EmployeeID, &l.Type, &start, &end, &l.Reason, &l.Status, &l.ApprovedBy, &l.CreatedAt, &l.UpdatedAt)
	l.StartDate = shared.DateOf(start)
	l.EndDate = shared.DateOf(end)
	return l, err
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

func notFound(err error, entity string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.NewNotFoundError(entity, id)
	}
	return err
}

// CreateEmployee inserts an employee.
func (r *Repository) CreateEmployee(ctx context.Context, e Employee) (Employee, error) {
	out, err := scanEmployee(r.pool.QueryRow(ctx, `INSERT INTO employees (user_id, position, phone, address, emergency_contact, emergency_phone, date_hired, hourly_rate, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING `+employeeColumns,
		e.UserID, string(e.Position), e.Phone, e.Address, e.EmergencyContact, e.EmergencyPhone, e.DateHired.Time(), e.HourlyRate, e.IsActive))
	if err != nil {
		return Employee{}, shared.MapConstraintError(err, "employee")
	}
	return out, nil
}

// UpdateEmployee rewrites an employee.
func (r *Repository) UpdateEmployee(ctx context.Context, e Employee) (Employee, error) {
	out, err := scanEmployee(r.pool.QueryRow(ctx, `UPDATE employees
SET user_id=$2, position=$3, phone=$4, address=$5, emergency_contact=$6, emergency_phone=$7, date_hired=$8, hourly_rate=$9, is_active=$10, updated_at=NOW()
WHERE id=$1 RETURNING `+employeeColumns,
		e.ID, e.UserID, string(e.Position), e.Phone, e.Address, e.EmergencyContact, e.EmergencyPhone, e.DateHired.Time(), e.HourlyRate, e.IsActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, shared.NewNotFoundError("employee", e.ID)
	}
	if err != nil {
		return Employee{}, shared.MapConstraintError(err, "employee")
	}
	return out, nil
}

// GetEmployee loads an employee.
func (r *Repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id))
	return e, notFound(err, "employee", id)
}

// ListEmployees returns employees ordered by the user's last and first name.
func (r *Repository) ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	query := `SELECT e.` + strings.ReplaceAll(employeeColumns, ", ", ", e.") + ` FROM employees e JOIN users u ON u.id = e.user_id`
	if activeOnly {
		query += ` WHERE e.is_active`
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY u.last_name, u.first_name, e.id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanEmployee)
}

// DeleteEmployee removes an employee with schedules and attendance.
func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("employee", id)
	}
	return nil
}

// CreateSchedule inserts a schedule.
func (r *Repository) CreateSchedule(ctx context.Context, s Schedule) (Schedule, error) {
	out, err := scanSchedule(r.pool.QueryRow(ctx, `INSERT INTO schedules (employee_id, shift_date, shift, start_time, end_time, notes)
VALUES ($1, $2, $3, $4::text::time, $5::text::time, $6) RETURNING `+scheduleColumns,
		s.EmployeeID, s.Date.Time(), string(s.Shift), s.StartTime, s.EndTime, s.Notes))
	if err != nil {
		return Schedule{}, shared.MapConstraintError(err, "schedule")
	}
	return out, nil
}

// UpdateSchedule rewrites a schedule.
func (r *Repository) UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error) {
	out, err := scanSchedule(r.pool.QueryRow(ctx, `UPDATE schedules
SET employee_id=$2, shift_date=$3, shift=$4, start_time=$5::text::time, end_time=$6::text::time, notes=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+scheduleColumns,
		s.ID, s.EmployeeID, s.Date.Time(), string(s.Shift), s.StartTime, s.EndTime, s.Notes))
	if errors.Is(err, pgx.ErrNoRows) {
		return Schedule{}, shared.NewNotFoundError("schedule", s.ID)
	}
	if err != nil {
		return Schedule{}, shared.MapConstraintError(err, "schedule")
	}
	return out, nil
}

// GetSchedule loads a schedule.
func (r *Repository) GetSchedule(ctx context.Context, id int64) (Schedule, error) {
	s, err := scanSchedule(r.pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1`, id))
	return s, notFound(err, "schedule", id)
}

// ListSchedules returns schedules ordered by date and start time.
func (r *Repository) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID > 0 {
		args = append(args, filter.EmployeeID)
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.Time())
		where = append(where, fmt.Sprintf("shift_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.Time())
		where = append(where, fmt.Sprintf("shift_date <= $%d", len(args)))
	}
	query := `SELECT ` + scheduleColumns + ` FROM schedules`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY shift_date, start_time, id`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSchedule)
}

// DeleteSchedule removes a schedule.
func (r *Repository) DeleteSchedule(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("schedule", id)
	}
	return nil
}

// CreateAttendance inserts an attendance record.
func (r *Repository) CreateAttendance(ctx context.Context, a Attendance) (Attendance, error) {
	out, err := scanAttendance(r.pool.QueryRow(ctx, `INSERT INTO attendance (employee_id, schedule_id, check_in, check_out, status, notes)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+attendanceColumns,
		a.EmployeeID, a.ScheduleID, a.CheckIn, a.CheckOut, string(a.Status), a.Notes))
	if err != nil {
		return Attendance{}, shared.MapConstraintError(err, "attendance")
	}
	return out, nil
}

// UpdateAttendance rewrites check times, status and notes.
func (r *Repository) UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error) {
	out, err := scanAttendance(r.pool.QueryRow(ctx, `UPDATE attendance
SET check_in=$2, check_out=$3, status=$4, notes=$5, updated_at=NOW()
WHERE id=$1 RETURNING `+attendanceColumns,
		a.ID, a.CheckIn, a.CheckOut, string(a.Status), a.Notes))
	return out, notFound(err, "attendance", a.ID)
}

// FindAttendance returns the record for an employee and schedule.
func (r *Repository) FindAttendance(ctx context.Context, employeeID, scheduleID int64) (Attendance, error) {
	a, err := scanAttendance(r.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE employee_id=$1 AND schedule_id=$2`,
		employeeID, scheduleID))
	return a, notFound(err, "attendance", scheduleID)
}

// ListAttendance returns records for schedules in the date range, newest first.
func (r *Repository) ListAttendance(ctx context.Context, filter ScheduleFilter) ([]Attendance, error) {
	cols := "a." + strings.ReplaceAll(attendanceColumns, ", ", ", a.")
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID > 0 {
		args = append(args, filter.EmployeeID)
		where = append(where, fmt.Sprintf("a.employee_id = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.Time())
		where = append(where, fmt.Sprintf("s.shift_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.Time())
		where = append(where, fmt.Sprintf("s.shift_date <= $%d", len(args)))
	}
	query := `SELECT ` + cols + ` FROM attendance a JOIN schedules s ON s.id = a.schedule_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY s.shift_date DESC, a.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAttendance)
}

// CreateLeave inserts a PENDING leave request.
func (r *Repository) CreateLeave(ctx context.Context, l Leave) (Leave, error) {
	out, err := scanLeave(r.pool.QueryRow(ctx, `INSERT INTO leaves (employee_id, leave_type, start_date, end_date, reason, status)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+leaveColumns,
		l.EmployeeID, string(l.Type), l.StartDate.Time(), l.EndDate.Time(), l.Reason, string(l.Status)))
	if err != nil {
		return Leave{}, shared.MapConstraintError(err, "employee_id")
	}
	return out, nil
}

// GetLeave loads a leave request.
func (r *Repository) GetLeave(ctx context.Context, id int64) (Leave, error) {
	l, err := scanLeave(r.pool.QueryRow(ctx, `SELECT `+leaveColumns+` FROM leaves WHERE id=$1`, id))
	return l, notFound(err, "leave", id)
}

// ListLeaves returns leave requests, latest start date first.
func (r *Repository) ListLeaves(ctx context.Context, employeeID int64) ([]Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM leaves`
	var args []any
	if employeeID > 0 {
		query += ` WHERE employee_id=$1`
		args = append(args, employeeID)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY start_date DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanLeave)
}

// DecideLeave moves a PENDING request to status. A request that is no longer
// pending is reported as ErrConflict.
func (r *Repository) DecideLeave(ctx context.Context, id int64, status LeaveStatus, approvedBy *int64) (Leave, error) {
	l, err := scanLeave(r.pool.QueryRow(ctx, `UPDATE leaves SET status=$2, approved_by=$3, updated_at=NOW()
WHERE id=$1 AND status='PENDING' RETURNING `+leaveColumns, id, string(status), approvedBy))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetLeave(ctx, id); getErr != nil {
			return Leave{}, getErr
		}
		return Leave{}, fmt.Errorf("%w: leave %d already decided", shared.ErrConflict, id)
	}
	return l, err
}
