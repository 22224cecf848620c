package dto

type CreateClassTypeRequest struct {
	BranchID               *uint  `json:"branch_id"`
	Name                   string `json:"name" validate:"required,max=120"`
	Category               string `json:"category" validate:"required,max=60"`
	DefaultDurationMinutes int    `json:"default_duration_minutes" validate:"required,gt=0"`
	DefaultCapacity        int    `json:"default_capacity" validate:"required,gt=0"`
	Color                  string `json:"color" validate:"omitempty,hexcolor"`
	Icon                   string `json:"icon" validate:"omitempty,max=60"`
	IsActive               *bool  `json:"is_active"`
}

// UpdateClassTypeRequest is a sparse patch. clear_branch makes the type shared.
type UpdateClassTypeRequest struct {
	BranchID               *uint   `json:"branch_id"`
	ClearBranch            bool    `json:"clear_branch"`
	Name                   *string `json:"name" validate:"omitempty,min=1,max=120"`
	Category               *string `json:"category" validate:"omitempty,min=1,max=60"`
	DefaultDurationMinutes *int    `json:"default_duration_minutes" validate:"omitempty,gt=0"`
	DefaultCapacity        *int    `json:"default_capacity" validate:"omitempty,gt=0"`
	Color                  *string `json:"color" validate:"omitempty,hexcolor"`
	Icon                   *string `json:"icon" validate:"omitempty,max=60"`
	IsActive               *bool   `json:"is_active"`
}

type CreateTemplateRequest struct {
	ClassTypeID  uint    `json:"class_type_id" validate:"required"`
	BranchID     uint    `json:"branch_id" validate:"required"`
	InstructorID *string `json:"instructor_id" validate:"omitempty,uuid"`
	Room         string  `json:"room" validate:"max=100"`
	DayOfWeek    *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime    string  `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string  `json:"end_time" validate:"required,datetime=15:04"`
	Capacity     int     `json:"capacity" validate:"gte=0"`
	IsRecurring  *bool   `json:"is_recurring"`
	ValidFrom    *string `json:"valid_from" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil   *string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	IsActive     *bool   `json:"is_active"`
}

type UpdateTemplateRequest struct {
	ClassTypeID     *uint   `json:"class_type_id" validate:"omitempty,gt=0"`
	BranchID        *uint   `json:"branch_id" validate:"omitempty,gt=0"`
	InstructorID    *string `json:"instructor_id" validate:"omitempty,uuid"`
	ClearInstructor bool    `json:"clear_instructor"`
	Room            *string `json:"room" validate:"omitempty,max=100"`
	DayOfWeek       *int    `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	StartTime       *string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime         *string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Capacity        *int    `json:"capacity" validate:"omitempty,gt=0"`
	IsRecurring     *bool   `json:"is_recurring"`
	ValidFrom       *string `json:"valid_from" validate:"omitempty,datetime=2006-01-02"`
	ClearValidFrom  bool    `json:"clear_valid_from"`
	ValidUntil      *string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	ClearValidUntil bool    `json:"clear_valid_until"`
	IsActive        *bool   `json:"is_active"`
}

type GenerateSessionsRequest struct {
	From       string `json:"from" validate:"required,datetime=2006-01-02"`
	To         string `json:"to" validate:"required,datetime=2006-01-02"`
	BranchID   *uint  `json:"branch_id"`
	TemplateID *uint  `json:"template_id"`
}

type UpdateSessionStatusRequest struct {
	Status           *string `json:"status" validate:"omitempty,oneof=scheduled cancelled completed"`
	InstructorID     *string `json:"instructor_id" validate:"omitempty,uuid"`
	Notes            *string `json:"notes"`
	CancelledReason  *string `json:"cancelled_reason" validate:"omitempty,max=500"`
	CapacityOverride *int    `json:"capacity_override" validate:"omitempty,gte=0"`
}

// CreateBookingRequest lets staff book on behalf of a member. Members book
// for themselves and may omit the body.
type CreateBookingRequest struct {
	MemberID string `json:"member_id" validate:"omitempty,uuid"`
}

type UpdateBookingStatusRequest struct {
	Status       string `json:"status" validate:"required,oneof=booked waitlisted attended no_show cancelled"`
	CancelReason string `json:"cancel_reason" validate:"max=500"`
}
