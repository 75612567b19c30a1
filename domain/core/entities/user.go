package entities

import (
	"time"

	"hirenest/domain/config"
	"hirenest/domain/core/valueobjects"
	pkgerrors "hirenest/pkg/errors"
)

// Experience is one work-history entry
type Experience struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Education is one education entry
type Education struct {
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	StartYear int    `json:"startYear,omitempty"`
	EndYear   int    `json:"endYear,omitempty"`
}

// Socials holds a user's external profile links
type Socials struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

// User is the identity record. Connections is a symmetric edge set that
// never holds duplicates or the user's own id.
type User struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Username       string       `json:"username"`
	Email          string       `json:"email"`
	PasswordHash   string       `json:"-"`
	ProfilePicture string       `json:"profilePicture"`
	CoverPicture   string       `json:"coverPicture"`
	Headline       string       `json:"headline"`
	Location       string       `json:"location"`
	About          string       `json:"about"`
	Skills         []string     `json:"skills"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Socials        Socials      `json:"socials"`
	Resume         string       `json:"resume,omitempty"`
	Connections    []string     `json:"connections"`
	Followers      []string     `json:"followers"`
	Following      []string     `json:"following"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// UserSummary is the public subset of a profile embedded in other resources
type UserSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Headline       string `json:"headline"`
}

// ConnectionSummary is a UserSummary that also lists the user's own
// connections, as returned by connection listings.
type ConnectionSummary struct {
	UserSummary
	Connections []string `json:"connections"`
}

// NewUser creates an account record with the profile defaults applied
func NewUser(cfg *config.DomainConfig, name, username, email, passwordHash string, now time.Time) (*User, error) {
	if name == "" {
		return nil, pkgerrors.NewValidationError("name is required")
	}
	if cfg.MaxNameLength > 0 && len(name) > cfg.MaxNameLength {
		return nil, pkgerrors.NewValidationError("name is too long")
	}
	if passwordHash == "" {
		return nil, pkgerrors.NewValidationError("password is required")
	}
	username, err := valueobjects.NormalizeUsername(username, cfg.MaxUsernameLength)
	if err != nil {
		return nil, err
	}
	email, err = valueobjects.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           valueobjects.NewID(),
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Headline:     cfg.DefaultHeadline,
		Location:     cfg.DefaultLocation,
		Skills:       []string{},
		Experience:   []Experience{},
		Education:    []Education{},
		Connections:  []string{},
		Followers:    []string{},
		Following:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Summary returns the public subset of the profile
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Headline:       u.Headline,
	}
}

// ConnectionSummary returns the summary together with the connection ids
func (u *User) ConnectionSummary() ConnectionSummary {
	return ConnectionSummary{
		UserSummary: u.Summary(),
		Connections: append([]string{}, u.Connections...),
	}
}

// IsConnectedTo reports whether other is in the user's connections
func (u *User) IsConnectedTo(other string) bool {
	for _, id := range u.Connections {
		if id == other {
			return true
		}
	}
	return false
}

// AddConnection adds other to the connection set. It reports whether the set
// changed; self references and duplicates are ignored.
func (u *User) AddConnection(other string) bool {
	if other == "" || other == u.ID || u.IsConnectedTo(other) {
		return false
	}
	u.Connections = append(u.Connections, other)
	return true
}

// RemoveConnection removes other from the connection set and reports whether
// it was present.
func (u *User) RemoveConnection(other string) bool {
	for i, id := range u.Connections {
		if id == other {
			u.Connections = append(u.Connections[:i], u.Connections[i+1:]...)
			return true
		}
	}
	return false
}

// ProfileChanges enumerates every field a user may change on their own
// profile. Nil fields are left untouched.
type ProfileChanges struct {
	Name           *string       `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Username       *string       `json:"username,omitempty" validate:"omitempty,min=1,max=50"`
	Headline       *string       `json:"headline,omitempty" validate:"omitempty,max=220"`
	About          *string       `json:"about,omitempty" validate:"omitempty,max=5000"`
	Location       *string       `json:"location,omitempty" validate:"omitempty,max=120"`
	ProfilePicture *string       `json:"profilePicture,omitempty"`
	CoverPicture   *string       `json:"coverPicture,omitempty"`
	Skills         *[]string     `json:"skills,omitempty" validate:"omitempty,max=100,dive,min=1,max=80"`
	Experience     *[]Experience `json:"experience,omitempty" validate:"omitempty,max=50"`
	Education      *[]Education  `json:"education,omitempty" validate:"omitempty,max=50"`
	Socials        *Socials      `json:"socials,omitempty"`
	Resume         *string       `json:"resume,omitempty"`
}

// Apply copies the set fields onto the user and returns the changed field
// names in a stable order.
func (c ProfileChanges) Apply(u *User, now time.Time) []string {
	var changed []string
	setString := func(name string, src *string, dst *string) {
		if src != nil {
			*dst = *src
			changed = append(changed, name)
		}
	}

	setString("name", c.Name, &u.Name)
	setString("username", c.Username, &u.Username)
	setString("headline", c.Headline, &u.Headline)
	setString("about", c.About, &u.About)
	setString("location", c.Location, &u.Location)
	setString("profilePicture", c.ProfilePicture, &u.ProfilePicture)
	setString("coverPicture", c.CoverPicture, &u.CoverPicture)
	setString("resume", c.Resume, &u.Resume)
	if c.Skills != nil {
		u.Skills = append([]string{}, (*c.Skills)...)
		changed = append(changed, "skills")
	}
	if c.Experience != nil {
		u.Experience = append([]Experience{}, (*c.Experience)...)
		changed = append(changed, "experience")
	}
	if c.Education != nil {
		u.Education = append([]Education{}, (*c.Education)...)
		changed = append(changed, "education")
	}
	if c.Socials != nil {
		u.Socials = *c.Socials
		changed = append(changed, "socials")
	}

	if len(changed) > 0 {
		u.UpdatedAt = now
	}
	return changed
}
