package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
)

func (r UserRole) Valid() bool {
	return r == Student || r == Teacher
}

// swagger:model User
type User struct {
	BaseModel
	Username  string   `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email     string   `gorm:"size:254;uniqueIndex;not null" json:"email"`
	FirstName string   `gorm:"size:150" json:"firstName"`
	LastName  string   `gorm:"size:150" json:"lastName"`
	Password  string   `gorm:"size:100;not null" json:"-"`
	IsActive  bool     `gorm:"not null" json:"isActive"`
	Profile   *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Profile carries the role and section of a user. Every user has exactly one.
type Profile struct {
	BaseModel
	UserID    uint     `gorm:"uniqueIndex;not null" json:"userId"`
	Role      UserRole `gorm:"size:10;not null;default:'student'" json:"role"`
	SectionID *uint    `gorm:"index" json:"sectionId"`
	Section   *Section `gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL" json:"section,omitempty"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) IsStudent() bool {
	return p != nil && p.Role == Student
}

func (p *Profile) IsTeacher() bool {
	return p != nil && p.Role == Teacher
}
