package models

// Alert is the single user-facing message an operation can leave behind.
type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}
