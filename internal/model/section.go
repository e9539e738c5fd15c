package model

// swagger:model Section
type Section struct {
	BaseModel
	Name        string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

func (Section) TableName() string {
	return "sections"
}
