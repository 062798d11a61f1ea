package dto

type SigninRequest struct {
	Username string `json:"username" binding:"notblank" example:"testuser"`
	Password string `json:"password" binding:"notblank" example:"password"`
}

type SignupRequest struct {
	Username  string   `json:"username" binding:"notblank,min=3,max=20" example:"testuser"`
	Email     string   `json:"email" binding:"notblank,max=50,email" example:"test@example.com"`
	Password  string   `json:"password" binding:"notblank,min=6,max=40" example:"password"`
	FirstName string   `json:"firstName" binding:"notblank,max=50" example:"Иван"`
	LastName  string   `json:"lastName" binding:"notblank,max=50" example:"Иванов"`
	Role      []string `json:"role,omitempty" example:"user"`
}

type JwtResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type" example:"Bearer"`
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles" example:"ROLE_USER"`
}
