package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User is an account that can sign in
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	IsActive     bool       `json:"isActive"`
	IsStaff      bool       `json:"isStaff"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FullName joins first and last name, falling back to the username
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.Username
}

// UserProfile holds farmer-facing preferences for a user
type UserProfile struct {
	UserID                 uuid.UUID `json:"userId"`
	Phone                  string    `json:"phone"`
	Role                   UserRole  `json:"role"`
	Language               string    `json:"language"`
	Location               string    `json:"location"`
	Latitude               *float64  `json:"latitude,omitempty"`
	Longitude              *float64  `json:"longitude,omitempty"`
	FarmingExperienceYears int       `json:"farmingExperienceYears"`
	PreferredCrops         []string  `json:"preferredCrops"`
	NotifyEmail            bool      `json:"notifyEmail"`
	NotifySMS              bool      `json:"notifySms"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// DefaultProfile is the profile created alongside a new user
func DefaultProfile(userID uuid.UUID) *UserProfile {
	return &UserProfile{
		UserID:         userID,
		Role:           RoleFarmer,
		Language:       "en",
		PreferredCrops: []string{},
		NotifyEmail:    true,
		UpdatedAt:      time.Now().UTC(),
	}
}

// RegisterInput represents input for creating an account
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

// LoginInput represents credentials for signing in
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput carries a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordInput represents a password change request
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128,nefield=OldPassword"`
}

// ProfileUpdateInput represents a partial profile update
type ProfileUpdateInput struct {
	FirstName              *string   `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName               *string   `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Phone                  *string   `json:"phone,omitempty" validate:"omitempty,max=20"`
	Role                   *UserRole `json:"role,omitempty" validate:"omitempty,oneof=farmer expert"`
	Language               *string   `json:"language,omitempty" validate:"omitempty,min=2,max=10"`
	Location               *string   `json:"location,omitempty" validate:"omitempty,max=200"`
	Latitude               *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude              *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	FarmingExperienceYears *int      `json:"farmingExperienceYears,omitempty" validate:"omitempty,min=0,max=80"`
	PreferredCrops         []string  `json:"preferredCrops,omitempty" validate:"omitempty,max=20,dive,min=2,max=100"`
	NotifyEmail            *bool     `json:"notifyEmail,omitempty"`
	NotifySMS              *bool     `json:"notifySms,omitempty"`
}

// Apply copies the set fields onto user and profile
func (in ProfileUpdateInput) Apply(u *User, p *UserProfile) {
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Role != nil {
		p.Role = *in.Role
	}
	if in.Language != nil {
		p.Language = *in.Language
	}
	if in.Location != nil {
		p.Location = *in.Location
	}
	if in.Latitude != nil {
		p.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		p.Longitude = in.Longitude
	}
	if in.FarmingExperienceYears != nil {
		p.FarmingExperienceYears = *in.FarmingExperienceYears
	}
	if in.PreferredCrops != nil {
		p.PreferredCrops = in.PreferredCrops
	}
	if in.NotifyEmail != nil {
		p.NotifyEmail = *in.NotifyEmail
	}
	if in.NotifySMS != nil {
		p.NotifySMS = *in.NotifySMS
	}
}

// UserWithProfile is the /auth/me and /users/profile payload
type UserWithProfile struct {
	User
	Profile *UserProfile `json:"profile"`
}

// AuthResult is returned on register, login and refresh
type AuthResult struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// UserFilter filters the staff user listing
type UserFilter struct {
	Search   string
	IsActive *bool
}

// JWTClaims represents access token claims
type JWTClaims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	IsStaff bool   `json:"staff"`
	jwt.RegisteredClaims
}
