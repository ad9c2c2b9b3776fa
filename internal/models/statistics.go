package models

// Statistics are aggregate counts derived from the task collection. They are never stored.
type Statistics struct {
	Total          int              `json:"total"`
	Done           int              `json:"done"`
	InProgress     int              `json:"inProgress"`
	Todo           int              `json:"todo"`
	PriorityStats  map[Priority]int `json:"priorityStats"`
	CategoryStats  map[string]int   `json:"categoryStats"`
	CompletionRate int              `json:"completionRate"`
}
