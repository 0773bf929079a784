package workflowscheme

// Scheme is the workflow scheme payload consumed by the create and edit
// operations. IssueTypeMappings maps issue type ids to workflow names;
// issue types absent from the map use DefaultWorkflow.
type Scheme struct {
	ID                  int64             `json:"id,omitempty"`
	Name                string            `json:"name,omitempty"`
	Description         string            `json:"description,omitempty"`
	DefaultWorkflow     string            `json:"defaultWorkflow,omitempty"`
	IssueTypeMappings   map[string]string `json:"issueTypeMappings,omitempty"`
	Draft               bool              `json:"draft,omitempty"`
	UpdateDraftIfNeeded bool              `json:"updateDraftIfNeeded,omitempty"`

	// Read-only fields served on draft responses.
	LastModified     string `json:"lastModified,omitempty"`
	LastModifiedUser *User  `json:"lastModifiedUser,omitempty"`
}

// User identifies the author of a draft modification.
type User struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// DefaultWorkflow is the payload of the default workflow write operations.
type DefaultWorkflow struct {
	Workflow            string `json:"workflow"`
	UpdateDraftIfNeeded bool   `json:"updateDraftIfNeeded,omitempty"`
}

// IssueTypeMapping binds a single issue type to a workflow within a scheme.
type IssueTypeMapping struct {
	IssueType           string `json:"issueType,omitempty"`
	Workflow            string `json:"workflow,omitempty"`
	UpdateDraftIfNeeded bool   `json:"updateDraftIfNeeded,omitempty"`
}
