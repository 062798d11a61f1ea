package dto

import (
	"fmt"

	"telros.ru/usersvc/internal/model"
)

type ProfileRequest struct {
	LastName    string      `json:"lastName" binding:"notblank,max=50" example:"Иванов"`
	FirstName   string      `json:"firstName" binding:"notblank,max=50" example:"Иван"`
	MiddleName  *string     `json:"middleName" binding:"omitempty,max=50" example:"Иванович"`
	BirthDate   *model.Date `json:"birthDate" swaggertype:"string" example:"1995-05-15"`
	PhoneNumber *string     `json:"phoneNumber" binding:"omitempty,max=20" example:"+7 (999) 987-65-43"`
}

type ProfileResponse struct {
	ID          uint        `json:"id"`
	LastName    string      `json:"lastName"`
	FirstName   string      `json:"firstName"`
	MiddleName  *string     `json:"middleName"`
	BirthDate   *model.Date `json:"birthDate" swaggertype:"string"`
	Email       string      `json:"email"`
	PhoneNumber *string     `json:"phoneNumber"`
	HasPhoto    bool        `json:"hasPhoto"`
	PhotoURL    *string     `json:"photoUrl"`
}

type UserResponse struct {
	ID          uint             `json:"id"`
	Username    string           `json:"username"`
	Email       string           `json:"email"`
	UserDetails *ProfileResponse `json:"userDetails"`
}

func PhotoURL(profileID uint) string {
	return fmt.Sprintf("/api/users/%d/photo", profileID)
}

func NewProfileResponse(p *model.Profile, email string) *ProfileResponse {
	res := &ProfileResponse{
		ID:          p.ID,
		LastName:    p.LastName,
		FirstName:   p.FirstName,
		MiddleName:  p.MiddleName,
		BirthDate:   p.BirthDate,
		Email:       email,
		PhoneNumber: p.PhoneNumber,
		HasPhoto:    p.Photo != nil,
	}
	if res.HasPhoto {
		url := PhotoURL(p.ID)
		res.PhotoURL = &url
	}
	return res
}

func NewUserResponse(u *model.User) UserResponse {
	res := UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
	if u.Profile != nil {
		res.UserDetails = NewProfileResponse(u.Profile, u.Email)
	}
	return res
}
