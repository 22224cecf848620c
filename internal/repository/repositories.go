package repository

// Repositories bundles the stores of the four scheduling aggregates.
type Repositories struct {
	ClassTypes ClassTypeRepository
	Templates  TemplateRepository
	Sessions   SessionRepository
	Bookings   BookingRepository
}

func NewRepositories() Repositories {
	return Repositories{
		ClassTypes: NewClassTypeRepository(),
		Templates:  NewTemplateRepository(),
		Sessions:   NewSessionRepository(),
		Bookings:   NewBookingRepository(),
	}
}
