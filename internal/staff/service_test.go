package staff

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

type memoryRepo struct {
	nextID     int64
	employees  map[int64]Employee
	schedules  map[int64]Schedule
	attendance map[int64]Attendance
	leaves     map[int64]Leave
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		employees:  make(map[int64]Employee),
		schedules:  make(map[int64]Schedule),
		attendance: make(map[int64]Attendance),
		leaves:     make(map[int64]Leave),
	}
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) CreateEmployee(_ context.Context, e Employee) (Employee, error) {
	for _, existing := range r.employees {
		if existing.UserID == e.UserID {
			return Employee{}, fmt.Errorf("%w: employee already exists", shared.ErrConflict)
		}
	}
	e.ID = r.id()
	r.employees[e.ID] = e
	return e, nil
}

func (r *memoryRepo) UpdateEmployee(_ context.Context, e Employee) (Employee, error) {
	if _, ok := r.employees[e.ID]; !ok {
		return Employee{}, shared.NewNotFoundError("employee", e.ID)
	}
	r.employees[e.ID] = e
	return e, nil
}

func (r *memoryRepo) GetEmployee(_ context.Context, id int64) (Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return Employee{}, shared.NewNotFoundError("employee", id)
	}
	return e, nil
}

func (r *memoryRepo) ListEmployees(_ context.Context, activeOnly bool) ([]Employee, error) {
	var out []Employee
	for _, e := range r.employees {
		if !activeOnly || e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) DeleteEmployee(_ context.Context, id int64) error {
	if _, ok := r.employees[id]; !ok {
		return shared.NewNotFoundError("employee", id)
	}
	delete(r.employees, id)
	return nil
}

func (r *memoryRepo) CreateSchedule(_ context.Context, s Schedule) (Schedule, error) {
	for _, existing := range r.schedules {
		if existing.EmployeeID == s.EmployeeID && existing.Date.Equal(s.Date) && existing.Shift == s.Shift {
			return Schedule{}, fmt.Errorf("%w: schedule already exists", shared.ErrConflict)
		}
	}
	s.ID = r.id()
	r.schedules[s.ID] = s
	return s, nil
}

func (r *memoryRepo) UpdateSchedule(_ context.Context, s Schedule) (Schedule, error) {
	if _, ok := r.schedules[s.ID]; !ok {
		return Schedule{}, shared.NewNotFoundError("schedule", s.ID)
	}
	r.schedules[s.ID] = s
	return s, nil
}

func (r *memoryRepo) GetSchedule(_ context.Context, id int64) (Schedule, error) {
	s, ok := r.schedules[id]
	if !ok {
		return Schedule{}, shared.NewNotFoundError("schedule", id)
	}
	return s, nil
}

func (r *memoryRepo) ListSchedules(_ context.Context, filter ScheduleFilter) ([]Schedule, error) {
	var out []Schedule
	for _, s := range r.schedules {
		if filter.EmployeeID > 0 && s.EmployeeID != filter.EmployeeID {
			continue
		}
		if !filter.From.IsZero() && s.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && s.Date.After(filter.To) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *memoryRepo) DeleteSchedule(_ context.Context, id int64) error {
	if _, ok := r.schedules[id]; !ok {
		return shared.NewNotFoundError("schedule", id)
	}
	delete(r.schedules, id)
	return nil
}

func (r *memoryRepo) CreateAttendance(_ context.Context, a Attendance) (Attendance, error) {
	for _, existing := range r.attendance {
		if existing.EmployeeID == a.EmployeeID && existing.ScheduleID == a.ScheduleID {
			return Attendance{}, fmt.Errorf("%w: attendance already exists", shared.ErrConflict)
		}
	}
	a.ID = r.id()
	r.attendance[a.ID] = a
	return a, nil
}

func (r *memoryRepo) UpdateAttendance(_ context.Context, a Attendance) (Attendance, error) {
	if _, ok := r.attendance[a.ID]; !ok {
		return Attendance{}, shared.NewNotFoundError("attendance", a.ID)
	}
	r.attendance[a.ID] = a
	return a, nil
}

func (r *memoryRepo) FindAttendance(_ context.Context, employeeID, scheduleID int64) (Attendance, error) {
	for _, a := range r.attendance {
		if a.EmployeeID == employeeID && a.ScheduleID == scheduleID {
			return a, nil
		}
	}
	return Attendance{}, shared.NewNotFoundError("attendance", scheduleID)
}

func (r *memoryRepo) ListAttendance(_ context.Context, filter ScheduleFilter) ([]Attendance, error) {
	var out []Attendance
	for _, a := range r.attendance {
		if filter.EmployeeID > 0 && a.EmployeeID != filter.EmployeeID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryRepo) CreateLeave(_ context.Context, l Leave) (Leave, error) {
	l.ID = r.id()
	r.leaves[l.ID] = l
	return l, nil
}

func (r *memoryRepo) GetLeave(_ context.Context, id int64) (Leave, error) {
	l, ok := r.leaves[id]
	if !ok {
		return Leave{}, shared.NewNotFoundError("leave", id)
	}
	return l, nil
}

func (r *memoryRepo) ListLeaves(_ context.Context, employeeID int64) ([]Leave, error) {
	var out []Leave
	for _, l := range r.leaves {
		if employeeID == 0 || l.EmployeeID == employeeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memoryRepo) DecideLeave(_ context.Context, id int64, status LeaveStatus, approvedBy *int64) (Leave, error) {
	l, ok := r.leaves[id]
	if !ok {
		return Leave{}, shared.NewNotFoundError("leave", id)
	}
	l.Status = status
	l.ApprovedBy = approvedBy
	r.leaves[id] = l
	return l, nil
}

var testDay = shared.NewDate(2024, time.May, 10)

func newTestService(t *testing.T) (*Service, *memoryRepo, Employee) {
	t.Helper()
	repo := newMemoryRepo()
	svc := NewService(repo, nil, ServiceConfig{})
	emp, err := svc.CreateEmployee(context.Background(), EmployeeInput{
		UserID:     7,
		Position:   PositionWaiter,
		DateHired:  shared.NewDate(2023, time.January, 2),
		HourlyRate: decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)
	return svc, repo, emp
}

func TestCreateEmployeeValidation(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := context.Background()
	require.True(t, emp.IsActive)

	_, err := svc.CreateEmployee(ctx, EmployeeInput{UserID: 8, Position: "BARISTA", DateHired: testDay})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateEmployee(ctx, EmployeeInput{UserID: 8, Position: PositionChef, DateHired: testDay, HourlyRate: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateEmployee(ctx, EmployeeInput{UserID: 8, Position: PositionChef})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateEmployee(ctx, EmployeeInput{UserID: 7, Position: PositionChef, DateHired: testDay})
	require.ErrorIs(t, err, shared.ErrConflict)

	inactive := false
	updated, err := svc.UpdateEmployee(ctx, emp.ID, EmployeeInput{UserID: 7, Position: PositionManager, DateHired: testDay, IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	updated, err = svc.UpdateEmployee(ctx, emp.ID, EmployeeInput{UserID: 7, Position: PositionManager, DateHired: testDay})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
}

func TestScheduleOverlapAndOrdering(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := context.Background()

	morning, err := svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftMorning, StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)

	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftAfternoon, StartTime: "11:30", EndTime: "16:00"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Contains(t, err.Error(), "overlaps the MORNING shift")

	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftAfternoon, StartTime: "12:00", EndTime: "16:00"})
	require.NoError(t, err)

	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftEvening, StartTime: "18:00", EndTime: "18:00"})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftEvening, StartTime: "6pm", EndTime: "23:00"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay.AddDays(1), Shift: ShiftMorning, StartTime: "09:00", EndTime: "11:00"})
	require.NoError(t, err)

	updated, err := svc.UpdateSchedule(ctx, morning.ID, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftMorning, StartTime: "07:00", EndTime: "12:00"})
	require.NoError(t, err)
	require.Equal(t, "07:00", updated.StartTime)

	_, err = svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: 999, Date: testDay, Shift: ShiftMorning, StartTime: "07:00", EndTime: "12:00"})
	require.ErrorIs(t, err, shared.ErrValidation)

	list, err := svc.ListSchedules(ctx, ScheduleFilter{From: testDay, To: testDay})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "07:00", list[0].StartTime)

	_, err = svc.ListSchedules(ctx, ScheduleFilter{From: testDay, To: testDay.AddDays(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCheckInAndOut(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := context.Background()
	sched, err := svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftMorning, StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 5, 10, 8, 15, 0, 0, time.UTC) }
	a, err := svc.CheckIn(ctx, sched.ID)
	require.NoError(t, err)
	require.Equal(t, AttendancePresent, a.Status)
	require.Equal(t, "checked in 15 min late", a.Notes)

	_, err = svc.CheckIn(ctx, sched.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	svc.now = func() time.Time { return time.Date(2024, 5, 10, 12, 45, 0, 0, time.UTC) }
	a, err = svc.CheckOut(ctx, sched.ID)
	require.NoError(t, err)
	require.Equal(t, "4.5", a.HoursWorked().String())

	_, err = svc.CheckOut(ctx, sched.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCheckInOnTimeIsPresent(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := context.Background()
	sched, err := svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftEvening, StartTime: "18:00", EndTime: "23:00"})
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, sched.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	svc.now = func() time.Time { return time.Date(2024, 5, 10, 17, 50, 0, 0, time.UTC) }
	a, err := svc.CheckIn(ctx, sched.ID)
	require.NoError(t, err)
	require.Equal(t, AttendancePresent, a.Status)
	require.Empty(t, a.Notes)
}

func TestRecordAttendance(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := context.Background()
	sched, err := svc.CreateSchedule(ctx, ScheduleInput{EmployeeID: emp.ID, Date: testDay, Shift: ShiftMorning, StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)

	in := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	out := in.Add(-time.Minute)
	_, err = svc.RecordAttendance(ctx, AttendanceInput{EmployeeID: emp.ID, ScheduleID: sched.ID, CheckIn: &in, CheckOut: &out, Status: AttendancePresent})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.RecordAttendance(ctx, AttendanceInput{EmployeeID: emp.ID + 100, ScheduleID: sched.ID})
	require.ErrorIs(t, err, shared.ErrValidation)

	a, err := svc.RecordAttendance(ctx, AttendanceInput{EmployeeID: emp.ID, ScheduleID: sched.ID})
	require.NoError(t, err)
	require.Equal(t, AttendanceAbsent, a.Status)
	require.True(t, a.HoursWorked().IsZero())

	_, err = svc.RecordAttendance(ctx, AttendanceInput{EmployeeID: emp.ID, ScheduleID: sched.ID})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestLeaveLifecycle(t *testing.T) {
	svc, _, emp := newTestService(t)
	ctx := shared.ContextWithActor(context.Background(), 42)

	_, err := svc.RequestLeave(ctx, LeaveInput{EmployeeID: emp.ID, Type: LeaveVacation, StartDate: testDay, EndDate: testDay.AddDays(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	leave, err := svc.RequestLeave(ctx, LeaveInput{EmployeeID: emp.ID, Type: LeaveVacation, StartDate: testDay, EndDate: testDay})
	require.NoError(t, err)
	require.Equal(t, LeavePending, leave.Status)

	_, err = svc.DecideLeave(ctx, leave.ID, DecisionInput{Status: LeavePending})
	require.ErrorIs(t, err, shared.ErrValidation)

	decided, err := svc.DecideLeave(ctx, leave.ID, DecisionInput{Status: LeaveApproved})
	require.NoError(t, err)
	require.Equal(t, LeaveApproved, decided.Status)
	require.NotNil(t, decided.ApprovedBy)
	require.Equal(t, int64(42), *decided.ApprovedBy)

	_, err = svc.DecideLeave(ctx, leave.ID, DecisionInput{Status: LeaveRejected})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestHoursWorked(t *testing.T) {
	in := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	out := in.Add(7*time.Hour + 20*time.Minute)
	a := Attendance{CheckIn: &in, CheckOut: &out}
	require.Equal(t, "7.33", a.HoursWorked().StringFixed(2))
	require.True(t, Attendance{CheckIn: &in}.HoursWorked().IsZero())
}
