package models

// MenuItem is one position on the drinks/desserts menu.
type MenuItem struct {
	BaseModel
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `gorm:"index" json:"category"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url"`
	IsAvailable bool    `json:"is_available"`
	Position    int     `json:"position"`
}

// TableName keeps the historical table name used by the web site.
func (MenuItem) TableName() string {
	return "coffee_menu"
}
