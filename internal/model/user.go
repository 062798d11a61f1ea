package model

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:20;uniqueIndex;not null" json:"name"`
}

// User is the root of the account aggregate. Its Profile and the Profile's
// Photo are removed by the database when the user row goes away.
type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string   `gorm:"size:50;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"column:password;size:120;not null" json:"-"`
	Roles        []Role   `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles"`
	Profile      *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"userDetails,omitempty"`
}

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
