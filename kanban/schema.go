// Package kanban holds the flat task-record schema served behind the
// authentication gate. Records only; behavior lives elsewhere.
package kanban

// Assignee identifies who a task is assigned to.
type Assignee struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Task is a single kanban card. A deliberately non-relational shape.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Label       string    `json:"label"`
	Priority    string    `json:"priority"`
	Description string    `json:"description,omitempty"`
	DueDate     string    `json:"dueDate,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Assignee    *Assignee `json:"assignee,omitempty"`
}
