package helpers

import users "auction-site/internal/userService"

// Request/Response DTOs
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is a partial update; absent fields stay unchanged
type UpdateUserRequest struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword *string `json:"currentPassword"`
}

type RegisterResponse struct {
	UserID uint `json:"userId"`
}

func (r RegisterRequest) Input() users.RegisterInput {
	return users.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

func (r UpdateUserRequest) Input() users.UpdateInput {
	return users.UpdateInput{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Email:           r.Email,
		Password:        r.Password,
		CurrentPassword: r.CurrentPassword,
	}
}

// Empty reports whether the request changes nothing
func (r UpdateUserRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil && r.Password == nil
}
