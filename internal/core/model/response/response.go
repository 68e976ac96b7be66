package response

import (
	"encoding/json"
	"time"

	"todotracker/internal/core/domain"
)

type UserResponse struct {
	ID        int       `json:"id"`
	UUID      string    `json:"uuid,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type TagResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TodoResponse struct {
	ID             int           `json:"id"`
	Title          string        `json:"title"`
	Completed      bool          `json:"completed"`
	StartDate      *time.Time    `json:"startDate"`
	EndDate        *time.Time    `json:"endDate"`
	ActivityType   string        `json:"activityType,omitempty"`
	Tags           []TagResponse `json:"tags"`
	ReminderAt     *time.Time    `json:"reminderAt"`
	ReminderStatus *string       `json:"reminderStatus"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type PushSubscriptionResponse struct {
	ID        int       `json:"id"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

type PushStatusResponse struct {
	Enabled       bool `json:"enabled"`
	Subscribed    bool `json:"subscribed"`
	Subscriptions int  `json:"subscriptions"`
}

type CursorData struct {
	Datetime string `json:"datetime"`
	ID       int    `json:"id,omitempty"`
}

type Pagination struct {
	HasNext    bool   `json:"has_next"`
	NextCursor string `json:"next_cursor"`
}

type CursorResponse struct {
	Size       int             `json:"size"`
	Data       json.RawMessage `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}

func NewTodoResponse(todo domain.Todo) TodoResponse {
	tags := make([]TagResponse, 0, len(todo.Tags))

	for _, tag := range todo.Tags {
		tags = append(tags, TagResponse{ID: tag.ID, Name: tag.Name})
	}

	var status *string

	if todo.ReminderStatus != nil {
		s := string(*todo.ReminderStatus)
		status = &s
	}

	return TodoResponse{
		ID:             todo.ID,
		Title:          todo.Title,
		Completed:      todo.Completed,
		StartDate:      todo.StartDate,
		EndDate:        todo.EndDate,
		ActivityType:   todo.ActivityType,
		Tags:           tags,
		ReminderAt:     todo.ReminderAt,
		ReminderStatus: status,
		CreatedAt:      todo.CreatedAt,
		UpdatedAt:      todo.UpdatedAt,
	}
}

func NewTodoListResponse(todos []domain.Todo) []TodoResponse {
	data := make([]TodoResponse, 0, len(todos))

	for _, todo := range todos {
		data = append(data, NewTodoResponse(todo))
	}

	return data
}

func NewUserResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		UUID:      user.UUID.String(),
		Username:  user.Username,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func NewUserListResponse(users []domain.User) []UserResponse {
	data := make([]UserResponse, 0, len(users))

	for _, user := range users {
		data = append(data, NewUserResponse(user))
	}

	return data
}
