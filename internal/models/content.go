package models

type Banner struct {
	BaseModel
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position"`
	IsActive bool   `json:"is_active"`
}

type FAQEntry struct {
	BaseModel
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}
