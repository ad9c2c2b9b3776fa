package models

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#1890ff"

// Category is a named, colored label referenced by id from tasks
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CategoryInput carries the caller-supplied fields for a new category
type CategoryInput struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// CategoryPatch holds the fields to merge onto an existing category
type CategoryPatch struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// Apply merges the patch onto the category
func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
}

// DefaultCategories returns the categories seeded on first run
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Work", Color: "#1890ff"},
		{ID: "2", Name: "Life", Color: "#52c41a"},
		{ID: "3", Name: "Study", Color: "#faad14"},
	}
}
