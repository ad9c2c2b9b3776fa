package models

// StatusAll disables the status dimension of a filter
const StatusAll = "all"

// FilterCriteria selects which tasks appear in the current view
type FilterCriteria struct {
	Status   string     `json:"status"`
	Priority []Priority `json:"priority"`
	Category []string   `json:"category"`
	Search   string     `json:"search"`
}

// FilterPatch is a partial update merged onto the current criteria
type FilterPatch struct {
	Status   *string     `json:"status,omitempty" validate:"omitempty,filter_status"`
	Priority *[]Priority `json:"priority,omitempty" validate:"omitempty,dive,priority"`
	Category *[]string   `json:"category,omitempty"`
	Search   *string     `json:"search,omitempty" validate:"omitempty,max=500"`
}

// DefaultFilterCriteria matches every task
func DefaultFilterCriteria() FilterCriteria {
	return FilterCriteria{
		Status:   StatusAll,
		Priority: []Priority{},
		Category: []string{},
		Search:   "",
	}
}

// Merge returns a copy of c with the patch applied
func (c FilterCriteria) Merge(p FilterPatch) FilterCriteria {
	out := c.Clone()
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = append([]Priority{}, (*p.Priority)...)
	}
	if p.Category != nil {
		out.Category = append([]string{}, (*p.Category)...)
	}
	if p.Search != nil {
		out.Search = *p.Search
	}
	return out
}

// Clone returns a deep copy of the criteria
func (c FilterCriteria) Clone() FilterCriteria {
	out := c
	out.Priority = append([]Priority{}, c.Priority...)
	out.Category = append([]string{}, c.Category...)
	return out
}
