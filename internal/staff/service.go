package staff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	CreateEmployee(ctx context.Context, e Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) (Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error

	CreateSchedule(ctx context.Context, s Schedule) (Schedule, error)
	UpdateSchedule(ctx context.Context, s Schedule) (Schedule, error)
	GetSchedule(ctx context.Context, id int64) (Schedule, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error)
	DeleteSchedule(ctx context.Context, id int64) error

	CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
	UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error)
	FindAttendance(ctx context.Context, employeeID, scheduleID int64) (Attendance, error)
	ListAttendance(ctx context.Context, filter ScheduleFilter) ([]Attendance, error)

	CreateLeave(ctx context.Context, l Leave) (Leave, error)
	GetLeave(ctx context.Context, id int64) (Leave, error)
	ListLeaves(ctx context.Context, employeeID int64) ([]Leave, error)
	DecideLeave(ctx context.Context, id int64, status LeaveStatus, approvedBy *int64) (Leave, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Cache    shared.CacheInvalidator
	Logger   *slog.Logger
}

// Service manages employees, schedules, attendance and leave.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	loc    *time.Location
	cache  shared.CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, loc: loc, cache: cfg.Cache, logger: logger, now: time.Now}
}

// CreateEmployee registers employment data for a user.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	e, err := buildEmployee(in)
	if err != nil {
		return Employee{}, err
	}
	created, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	s.record(ctx, shared.AuditCreate, "employee", created.ID, string(created.Position))
	return created, nil
}

// UpdateEmployee rewrites an employee. IsActive keeps its value when omitted.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (Employee, error) {
	current, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	e, err := buildEmployee(in)
	if err != nil {
		return Employee{}, err
	}
	e.ID = id
	if in.IsActive == nil {
		e.IsActive = current.IsActive
	}
	updated, err := s.repo.UpdateEmployee(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	s.record(ctx, shared.AuditUpdate, "employee", id, string(updated.Position))
	return updated, nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ListEmployees lists employees, optionally only active ones.
func (s *Service) ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error) {
	return s.repo.ListEmployees(ctx, activeOnly)
}

// DeleteEmployee removes an employee.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.record(ctx, shared.AuditDelete, "employee", id, "employee deleted")
	return nil
}

// CreateSchedule assigns a shift. End must follow start and the shift must not
// overlap another shift of the same employee on the same day.
func (s *Service) CreateSchedule(ctx context.Context, in ScheduleInput) (Schedule, error) {
	sched, err := s.prepareSchedule(ctx, 0, in)
	if err != nil {
		return Schedule{}, err
	}
	created, err := s.repo.CreateSchedule(ctx, sched)
	if err != nil {
		return Schedule{}, err
	}
	s.record(ctx, shared.AuditCreate, "schedule", created.ID, fmt.Sprintf("%s %s", created.Date, created.Shift))
	return created, nil
}

// UpdateSchedule rewrites a schedule with the same checks as CreateSchedule,
// ignoring the schedule itself in the overlap test.
func (s *Service) UpdateSchedule(ctx context.Context, id int64, in ScheduleInput) (Schedule, error) {
	if _, err := s.repo.GetSchedule(ctx, id); err != nil {
		return Schedule{}, err
	}
	sched, err := s.prepareSchedule(ctx, id, in)
	if err != nil {
		return Schedule{}, err
	}
	sched.ID = id
	updated, err := s.repo.UpdateSchedule(ctx, sched)
	if err != nil {
		return Schedule{}, err
	}
	s.record(ctx, shared.AuditUpdate, "schedule", id, fmt.Sprintf("%s %s", updated.Date, updated.Shift))
	return updated, nil
}

// GetSchedule returns one schedule.
func (s *Service) GetSchedule(ctx context.Context, id int64) (Schedule, error) {
	return s.repo.GetSchedule(ctx, id)
}

// ListSchedules returns schedules in an inclusive date range.
func (s *Service) ListSchedules(ctx context.Context, filter ScheduleFilter) ([]Schedule, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, shared.NewValidationError("to", "must not be before from")
	}
	return s.repo.ListSchedules(ctx, filter)
}

// DeleteSchedule removes a schedule and its attendance.
func (s *Service) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.repo.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	s.record(ctx, shared.AuditDelete, "schedule", id, "schedule deleted")
	return nil
}

// RecordAttendance stores attendance for a schedule. Status defaults to ABSENT.
func (s *Service) RecordAttendance(ctx context.Context, in AttendanceInput) (Attendance, error) {
	status := in.Status
	if status == "" {
		status = AttendanceAbsent
	}
	if !status.Valid() {
		return Attendance{}, shared.NewValidationError("status", "must be one of PRESENT ABSENT LATE LEAVE")
	}
	if err := checkTimes(in.CheckIn, in.CheckOut); err != nil {
		return Attendance{}, err
	}
	sched, err := s.repo.GetSchedule(ctx, in.ScheduleID)
	if err != nil {
		return Attendance{}, err
	}
	if sched.EmployeeID != in.EmployeeID {
		return Attendance{}, shared.NewValidationError("schedule_id", "belongs to another employee")
	}
	created, err := s.repo.CreateAttendance(ctx, Attendance{
		EmployeeID: in.EmployeeID,
		ScheduleID: in.ScheduleID,
		CheckIn:    in.CheckIn,
		CheckOut:   in.CheckOut,
		Status:     status,
		Notes:      strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return Attendance{}, err
	}
	s.attendanceChanged(ctx, created)
	return created, nil
}

// CheckIn stamps check-in for the employee of a schedule and marks the record
// PRESENT. Arriving after the scheduled start is noted, the status stays
// PRESENT so the shift is costed in labor reports.
func (s *Service) CheckIn(ctx context.Context, scheduleID int64) (Attendance, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Attendance{}, err
	}
	start, err := scheduledStart(sched, s.loc)
	if err != nil {
		return Attendance{}, err
	}
	now := s.now().UTC()
	var lateNote string
	if now.After(start) {
		lateNote = fmt.Sprintf("checked in %d min late", int(now.Sub(start).Minutes()))
	}

	existing, err := s.repo.FindAttendance(ctx, sched.EmployeeID, scheduleID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		created, err := s.repo.CreateAttendance(ctx, Attendance{
			EmployeeID: sched.EmployeeID,
			ScheduleID: scheduleID,
			CheckIn:    &now,
			Status:     AttendancePresent,
			Notes:      lateNote,
		})
		if err != nil {
			return Attendance{}, err
		}
		s.attendanceChanged(ctx, created)
		return created, nil
	case err != nil:
		return Attendance{}, err
	}
	if existing.CheckIn != nil {
		return Attendance{}, fmt.Errorf("%w: already checked in", shared.ErrConflict)
	}
	existing.CheckIn = &now
	existing.Status = AttendancePresent
	existing.Notes = joinNote(existing.Notes, lateNote)
	updated, err := s.repo.UpdateAttendance(ctx, existing)
	if err != nil {
		return Attendance{}, err
	}
	s.attendanceChanged(ctx, updated)
	return updated, nil
}

func joinNote(notes, extra string) string {
	switch {
	case extra == "":
		return notes
	case notes == "":
		return extra
	}
	return notes + "; " + extra
}

// CheckOut stamps check-out. The record must have a check-in.
func (s *Service) CheckOut(ctx context.Context, scheduleID int64) (Attendance, error) {
	sched, err := s.repo.GetSchedule(ctx, scheduleID)
	if err != nil {
		return Attendance{}, err
	}
	existing, err := s.repo.FindAttendance(ctx, sched.EmployeeID, scheduleID)
	if err != nil {
		return Attendance{}, err
	}
	if existing.CheckIn == nil {
		return Attendance{}, shared.NewValidationError("check_in", "is required before check out")
	}
	if existing.CheckOut != nil {
		return Attendance{}, fmt.Errorf("%w: already checked out", shared.ErrConflict)
	}
	now := s.now().UTC()
	if err := checkTimes(existing.CheckIn, &now); err != nil {
		return Attendance{}, err
	}
	existing.CheckOut = &now
	updated, err := s.repo.UpdateAttendance(ctx, existing)
	if err != nil {
		return Attendance{}, err
	}
	s.attendanceChanged(ctx, updated)
	return updated, nil
}

// ListAttendance lists attendance for schedules in a date range.
func (s *Service) ListAttendance(ctx context.Context, filter ScheduleFilter) ([]Attendance, error) {
	return s.repo.ListAttendance(ctx, filter)
}

// RequestLeave files a PENDING leave request.
func (s *Service) RequestLeave(ctx context.Context, in LeaveInput) (Leave, error) {
	if !in.Type.Valid() {
		return Leave{}, shared.NewValidationError("leave_type", "must be one of SICK VACATION PERSONAL OTHER")
	}
	if in.StartDate.IsZero() {
		return Leave{}, shared.NewValidationError("start_date", "is required")
	}
	if in.EndDate.IsZero() {
		return Leave{}, shared.NewValidationError("end_date", "is required")
	}
	if in.EndDate.Before(in.StartDate) {
		return Leave{}, shared.NewValidationError("end_date", "must not be before start_date")
	}
	leave, err := s.repo.CreateLeave(ctx, Leave{
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Reason:     strings.TrimSpace(in.Reason),
		Status:     LeavePending,
	})
	if err != nil {
		return Leave{}, err
	}
	s.record(ctx, shared.AuditCreate, "leave", leave.ID, string(leave.Type))
	return leave, nil
}

// DecideLeave approves or rejects a PENDING request on behalf of the actor.
func (s *Service) DecideLeave(ctx context.Context, id int64, in DecisionInput) (Leave, error) {
	if in.Status != LeaveApproved && in.Status != LeaveRejected {
		return Leave{}, shared.NewValidationError("status", "must be one of APPROVED REJECTED")
	}
	current, err := s.repo.GetLeave(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if current.Status != LeavePending {
		return Leave{}, shared.NewValidationError("status", fmt.Sprintf("leave is already %s", current.Status))
	}
	var approver *int64
	if actor := shared.ActorFromContext(ctx); actor > 0 {
		approver = &actor
	}
	leave, err := s.repo.DecideLeave(ctx, id, in.Status, approver)
	if err != nil {
		return Leave{}, err
	}
	s.record(ctx, shared.AuditUpdate, "leave", id, string(in.Status))
	return leave, nil
}

// ListLeaves lists leave requests, optionally for one employee.
func (s *Service) ListLeaves(ctx context.Context, employeeID int64) ([]Leave, error) {
	return s.repo.ListLeaves(ctx, employeeID)
}

func buildEmployee(in EmployeeInput) (Employee, error) {
	if in.UserID <= 0 {
		return Employee{}, shared.NewValidationError("user_id", "is required")
	}
	if !in.Position.Valid() {
		return Employee{}, shared.NewValidationError("position", "must be one of MANAGER CHEF WAITER CASHIER KITCHEN CLEANER")
	}
	if in.DateHired.IsZero() {
		return Employee{}, shared.NewValidationError("date_hired", "is required")
	}
	if in.HourlyRate.IsNegative() {
		return Employee{}, shared.NewValidationError("hourly_rate", "must be greater than or equal to 0")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return Employee{
		UserID:           in.UserID,
		Position:         in.Position,
		Phone:            strings.TrimSpace(in.Phone),
		Address:          in.Address,
		EmergencyContact: strings.TrimSpace(in.EmergencyContact),
		EmergencyPhone:   strings.TrimSpace(in.EmergencyPhone),
		DateHired:        in.DateHired,
		HourlyRate:       shared.RoundMoney(in.HourlyRate),
		IsActive:         active,
	}, nil
}

func (s *Service) prepareSchedule(ctx context.Context, id int64, in ScheduleInput) (Schedule, error) {
	if !in.Shift.Valid() {
		return Schedule{}, shared.NewValidationError("shift", "must be one of MORNING AFTERNOON EVENING NIGHT")
	}
	if in.Date.IsZero() {
		return Schedule{}, shared.NewValidationError("date", "is required")
	}
	candidate := Schedule{
		ID:         id,
		EmployeeID: in.EmployeeID,
		Date:       in.Date,
		Shift:      in.Shift,
		StartTime:  strings.TrimSpace(in.StartTime),
		EndTime:    strings.TrimSpace(in.EndTime),
		Notes:      in.Notes,
	}
	if _, err := scheduleSpan(candidate); err != nil {
		return Schedule{}, err
	}
	if _, err := s.repo.GetEmployee(ctx, in.EmployeeID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Schedule{}, shared.NewValidationError("employee_id", "references a missing record")
		}
		return Schedule{}, err
	}
	sameDay, err := s.repo.ListSchedules(ctx, ScheduleFilter{EmployeeID: in.EmployeeID, From: in.Date, To: in.Date})
	if err != nil {
		return Schedule{}, fmt.Errorf("list schedules: %w", err)
	}
	if err := checkOverlap(candidate, sameDay); err != nil {
		return Schedule{}, err
	}
	return candidate, nil
}

func checkTimes(in, out *time.Time) error {
	if out == nil {
		return nil
	}
	if in == nil {
		return shared.NewValidationError("check_in", "is required with check_out")
	}
	if !out.After(*in) {
		return shared.NewValidationError("check_out", "must be after check_in")
	}
	return nil
}

func (s *Service) attendanceChanged(ctx context.Context, a Attendance) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("staff: bump dashboard cache", slog.Any("error", err))
		}
	}
	s.record(ctx, shared.AuditUpdate, "attendance", a.ID, string(a.Status))
}

func (s *Service) record(ctx context.Context, action shared.AuditAction, entity string, id int64, description string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:     shared.ActorFromContext(ctx),
		Action:      action,
		Entity:      entity,
		EntityID:    fmt.Sprintf("%d", id),
		Description: description,
		IPAddress:   shared.ClientFromContext(ctx).IP,
	})
	if err != nil {
		s.logger.Warn("staff: record activity", slog.Any("error", err))
	}
}
