package client

import (
	"strconv"

	"proviai.com/provider-assistant/internal/store"
)

type Profession struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type Provider struct {
	ID     string   `json:"_id"`
	Name   string   `json:"name"`
	City   string   `json:"city"`
	Phone  string   `json:"phone"`
	Rating *float64 `json:"rating"`
}

// DefaultRating is shown when a provider has no rating yet.
const DefaultRating = "4.5"

// RatingText formats the rating, falling back to DefaultRating when it is
// missing or zero.
func (p Provider) RatingText() string {
	if p.Rating == nil || *p.Rating == 0 {
		return DefaultRating
	}
	return strconv.FormatFloat(*p.Rating, 'f', -1, 64)
}

type Product struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	Provider *Provider `json:"providerId"`
}

type RegisterRequest struct {
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Password  string     `json:"password"`
	Role      store.Role `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string
	User  *store.User
}

type professionsResponse struct {
	Professions []Profession `json:"professions"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

type providersResponse struct {
	Providers []Provider `json:"providers"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// wireUser accepts both "_id" and "id" from the backend.
type wireUser struct {
	MongoID   string `json:"_id"`
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

func (w *wireUser) toUser() *store.User {
	id := w.ID
	if id == "" {
		id = w.MongoID
	}
	role, ok := store.ParseRole(w.Role)
	if !ok {
		role = store.RoleProfessional
	}
	return &store.User{
		ID:        id,
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Role:      role,
	}
}
