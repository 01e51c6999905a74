package models

type User struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email"`
	Role          string `json:"role,omitempty"`
	Provider      string `json:"provider,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

func (u User) IsAdmin() bool {
	return u.Role == "admin"
}

// AuthSession est ce que le backend renvoie après login / register / OAuth
type AuthSession struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
