package models

// Role of the installation's user.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleEngineer Role = "engineer"
	RoleWorker   Role = "worker"
)

// UserProfile is the single user of an installation.
type UserProfile struct {
	Name      string `json:"name" yaml:"name"`
	Role      Role   `json:"role" yaml:"role"`
	Email     string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty" yaml:"avatar_url,omitempty"`
	JoinDate  string `json:"joinDate" yaml:"join_date"`
}
