package request

import "time"

type SignUpRequest struct {
	Username string `json:"username,omitempty" validate:"required,min=3,max=100"`
	Password string `json:"password,omitempty" validate:"required,min=6,max=100"`
}

type LoginRequest struct {
	Username string `json:"username,omitempty" validate:"required,max=100"`
	Password string `json:"password,omitempty" validate:"required,max=100"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username,omitempty" validate:"required,max=100"`
	NewPassword string `json:"newPassword,omitempty" validate:"required,min=6,max=100"`
}

type CreateTodoRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	Completed    bool       `json:"completed"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	ActivityType string     `json:"activityType" validate:"max=50"`
	Tags         []string   `json:"tags" validate:"max=50,dive,max=100"`
	ReminderAt   *time.Time `json:"reminderAt"`
}

// UpdateTodoRequest only touches the fields present in the body. An explicit
// null on reminderAt clears the reminder.
type UpdateTodoRequest struct {
	Title        Field[string]    `json:"title"`
	Completed    Field[bool]      `json:"completed"`
	StartDate    Field[time.Time] `json:"startDate"`
	EndDate      Field[time.Time] `json:"endDate"`
	ActivityType Field[string]    `json:"activityType"`
	Tags         Field[[]string]  `json:"tags"`
	ReminderAt   Field[time.Time] `json:"reminderAt"`
}

type PushSubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

type PushSubscriptionRequest struct {
	Endpoint string               `json:"endpoint" validate:"required,url"`
	Keys     PushSubscriptionKeys `json:"keys"`
}

type PushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}
