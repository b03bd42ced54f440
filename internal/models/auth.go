package models

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" form:"password" validate:"required,min=4"`
}

type UserInfo struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

func (r LoginRequest) Validate() error {
	return ValidateStruct(r)
}
