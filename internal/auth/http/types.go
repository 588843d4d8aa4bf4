package http

import (
	"time"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/service"
	usersdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/users/domain"
)

type Handler struct {
	authService *service.AuthService
	debug       bool
}

func New(authService *service.AuthService, debug bool) *Handler {
	return &Handler{
		authService: authService,
		debug:       debug,
	}
}

// account is the user as the auth endpoints return it.
type account struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccount(u *usersdomain.User) account {
	return account{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
