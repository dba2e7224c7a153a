package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	StatusToRead    = "to_read"
	StatusReading   = "reading"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

var Statuses = []string{StatusToRead, StatusReading, StatusCompleted, StatusDropped}

const (
	SortRecentlyAdded = "recently_added"
	SortTitle         = "title"
	SortAuthor        = "author"
	SortRating        = "rating"
	SortProgress      = "progress"
)

// DefaultShelves are created for every new account, in this order.
var DefaultShelves = []string{"To Read", "Reading", "Completed"}

// DefaultShelfForStatus returns the default shelf a new book with the given
// status is placed on. Dropped books are not shelved.
func DefaultShelfForStatus(status string) (string, bool) {
	switch status {
	case StatusToRead:
		return "To Read", true
	case StatusReading:
		return "Reading", true
	case StatusCompleted:
		return "Completed", true
	default:
		return "", false
	}
}

func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidSort(sort string) bool {
	switch sort {
	case SortRecentlyAdded, SortTitle, SortAuthor, SortRating, SortProgress:
		return true
	}
	return false
}

type User struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Book struct {
	Id               uuid.UUID `json:"id"`
	UserId           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	Authors          []string  `json:"authors"`
	Isbn             *string   `json:"isbn"`
	Publisher        *string   `json:"publisher"`
	Year             *int      `json:"year"`
	CoverUrl         *string   `json:"cover_url"`
	Category         *string   `json:"category"`
	Tags             []string  `json:"tags"`
	DescriptionNotes *string   `json:"description_notes"`
	Status           string    `json:"status"`
	Rating           *int      `json:"rating"`
	TotalPages       *int      `json:"total_pages"`
	CurrentPage      *int      `json:"current_page"`
	StartDate        *string   `json:"start_date"`
	EndDate          *string   `json:"end_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Shelf struct {
	Id        uuid.UUID `json:"id"`
	UserId    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// BookFilter scopes a book listing. UserId is always applied.
type BookFilter struct {
	UserId  uuid.UUID
	Search  string
	Status  string
	Tag     string
	ShelfId *uuid.UUID
	Sort    string
	Page    int
	Limit   int
}

type BookPage struct {
	Books        []Book         `json:"books"`
	Total        int            `json:"total"`
	Page         int            `json:"page"`
	Limit        int            `json:"limit"`
	StatusCounts map[string]int `json:"statusCounts"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HandleRegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type HandleLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type HandleAuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type HandleUserResponse struct {
	User *User `json:"user"`
}

type HandleUsersResponse struct {
	Users []User `json:"users"`
}

type HandleForgotPasswordRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Origin string `json:"origin" validate:"omitempty,max=2048"`
}

type HandleResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type HandleUpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

// HandleBookRequest is the body of both create and full-replace update.
type HandleBookRequest struct {
	Title            string     `json:"title" validate:"required,max=500"`
	Authors          StringList `json:"authors" validate:"dive,max=255"`
	Isbn             *string    `json:"isbn" validate:"omitempty,max=20"`
	Publisher        *string    `json:"publisher" validate:"omitempty,max=255"`
	Year             *int       `json:"year" validate:"omitempty,gte=0,lte=2100"`
	CoverUrl         *string    `json:"cover_url" validate:"omitempty,max=2048"`
	Category         *string    `json:"category" validate:"omitempty,max=100"`
	Tags             StringList `json:"tags" validate:"dive,max=100"`
	DescriptionNotes *string    `json:"description_notes"`
	Status           string     `json:"status" validate:"omitempty,oneof=to_read reading completed dropped"`
	Rating           *int       `json:"rating" validate:"omitempty,gte=1,lte=5"`
	TotalPages       *int       `json:"total_pages" validate:"omitempty,gte=0"`
	CurrentPage      *int       `json:"current_page" validate:"omitempty,gte=0"`
	StartDate        *string    `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          *string    `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type HandleBookShelvesResponse struct {
	ShelfIds []uuid.UUID `json:"shelfIds"`
}

type HandleShelfRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type HandleShelvesResponse struct {
	Shelves []Shelf `json:"shelves"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
