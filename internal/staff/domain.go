package staff

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Position enumerates employee roles.
type Position string

const (
	PositionManager Position = "MANAGER"
	PositionChef    Position = "CHEF"
	PositionWaiter  Position = "WAITER"
	PositionCashier Position = "CASHIER"
	PositionKitchen Position = "KITCHEN"
	PositionCleaner Position = "CLEANER"
)

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	switch p {
	case PositionManager, PositionChef, PositionWaiter, PositionCashier, PositionKitchen, PositionCleaner:
		return true
	}
	return false
}

// Shift enumerates schedule shifts.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
	ShiftEvening   Shift = "EVENING"
	ShiftNight     Shift = "NIGHT"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// AttendanceStatus enumerates attendance outcomes.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceLeave   AttendanceStatus = "LEAVE"
)

// Valid reports whether s is a known attendance status.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceLeave:
		return true
	}
	return false
}

// LeaveType enumerates leave categories.
type LeaveType string

const (
	LeaveSick     LeaveType = "SICK"
	LeaveVacation LeaveType = "VACATION"
	LeavePersonal LeaveType = "PERSONAL"
	LeaveOther    LeaveType = "OTHER"
)

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveSick, LeaveVacation, LeavePersonal, LeaveOther:
		return true
	}
	return false
}

// LeaveStatus enumerates leave request states.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

// Employee links a user account to employment data.
type Employee struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	Position         Position        `json:"position"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	EmergencyContact string          `json:"emergency_contact"`
	EmergencyPhone   string          `json:"emergency_phone"`
	DateHired        shared.Date     `json:"date_hired"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Schedule is one shift assignment. Times are HH:MM on Date.
type Schedule struct {
	ID         int64       `json:"id"`
	EmployeeID int64       `json:"employee_id"`
	Date       shared.Date `json:"date"`
	Shift      Shift       `json:"shift"`
	StartTime  string      `json:"start_time"`
	EndTime    string      `json:"end_time"`
	Notes      string      `json:"notes"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Attendance records whether an employee worked a scheduled shift.
type Attendance struct {
	ID         int64            `json:"id"`
	EmployeeID int64            `json:"employee_id"`
	ScheduleID int64            `json:"schedule_id"`
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	Status     AttendanceStatus `json:"status"`
	Notes      string           `json:"notes"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// HoursWorked returns fractional hours between check-in and check-out, or
// zero when either is missing.
func (a Attendance) HoursWorked() decimal.Decimal {
	if a.CheckIn == nil || a.CheckOut == nil || !a.CheckOut.After(*a.CheckIn) {
		return decimal.Zero
	}
	seconds := decimal.NewFromInt(int64(a.CheckOut.Sub(*a.CheckIn) / time.Second))
	return seconds.Div(decimal.NewFromInt(3600))
}

// Leave is a leave request.
type Leave struct {
	ID         int64       `json:"id"`
	EmployeeID int64       `json:"employee_id"`
	Type       LeaveType   `json:"leave_type"`
	StartDate  shared.Date `json:"start_date"`
	EndDate    shared.Date `json:"end_date"`
	Reason     string      `json:"reason"`
	Status     LeaveStatus `json:"status"`
	ApprovedBy *int64      `json:"approved_by,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// EmployeeInput carries employee fields.
type EmployeeInput struct {
	UserID           int64           `json:"user_id" validate:"required,gt=0"`
	Position         Position        `json:"position" validate:"required"`
	Phone            string          `json:"phone" validate:"max=20"`
	Address          string          `json:"address"`
	EmergencyContact string          `json:"emergency_contact" validate:"max=100"`
	EmergencyPhone   string          `json:"emergency_phone" validate:"max=20"`
	DateHired        shared.Date     `json:"date_hired"`
	HourlyRate       decimal.Decimal `json:"hourly_rate"`
	IsActive         *bool           `json:"is_active,omitempty"`
}

// ScheduleInput carries schedule fields.
type ScheduleInput struct {
	EmployeeID int64       `json:"employee_id" validate:"required,gt=0"`
	Date       shared.Date `json:"date"`
	Shift      Shift       `json:"shift" validate:"required"`
	StartTime  string      `json:"start_time" validate:"required"`
	EndTime    string      `json:"end_time" validate:"required"`
	Notes      string      `json:"notes"`
}

// ScheduleFilter narrows ListSchedules. Zero dates are open bounds.
type ScheduleFilter struct {
	EmployeeID int64
	From       shared.Date
	To         shared.Date
}

// AttendanceInput records attendance for a schedule.
type AttendanceInput struct {
	EmployeeID int64            `json:"employee_id" validate:"required,gt=0"`
	ScheduleID int64            `json:"schedule_id" validate:"required,gt=0"`
	CheckIn    *time.Time       `json:"check_in,omitempty"`
	CheckOut   *time.Time       `json:"check_out,omitempty"`
	Status     AttendanceStatus `json:"status"`
	Notes      string           `json:"notes"`
}

// LeaveInput carries a leave request.
type LeaveInput struct {
	EmployeeID int64       `json:"employee_id" validate:"required,gt=0"`
	Type       LeaveType   `json:"leave_type" validate:"required"`
	StartDate  shared.Date `json:"start_date"`
	EndDate    shared.Date `json:"end_date"`
	Reason     string      `json:"reason"`
}

// DecisionInput approves or rejects a leave request.
type DecisionInput struct {
	Status LeaveStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}
