package model

// Page describes the slice of a list returned to the caller.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
