package workflowscheme

import (
	"context"
	"net/http"
	"net/url"

	"github.com/luizaranda/go-jira/pkg/jira"
)

// Doer executes a built request. It is usually a *jira.Client, but can be
// any implementation, e.g. a capturing double in tests.
type Doer interface {
	Do(ctx context.Context, req *jira.Request) (*jira.Response, error)
}

// Service exposes the workflow scheme operations. It is stateless: every
// call builds an independent request from its own arguments, so a Service
// is safe for concurrent use.
type Service struct {
	client Doer
}

// NewService returns a Service executing its calls through the given Doer.
func NewService(client Doer) *Service {
	return &Service{client: client}
}

// Path suffixes of the scheme-scoped operations.
const (
	_collectionPath = "/workflowscheme"
	_schemePath     = "/workflowscheme/{schemeID}"

	_suffixCreateDraft    = "/createdraft"
	_suffixDefault        = "/default"
	_suffixDraft          = "/draft"
	_suffixDraftDefault   = "/draft/default"
	_suffixIssueType      = "/issuetype/{issueType}"
	_suffixDraftIssueType = "/draft/issuetype/{issueType}"
)

// CreateRequest creates a new workflow scheme.
type CreateRequest struct {
	Scheme Scheme
}

// Create adds a new workflow scheme. This is the only operation that
// targets the collection root instead of a scheme-scoped path.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*jira.Response, error) {
	return s.client.Do(ctx, &jira.Request{
		Path:   _collectionPath,
		Method: http.MethodPost,
		Body:   req.Scheme,
	})
}

// EditRequest updates the scheme identified by SchemeID.
type EditRequest struct {
	SchemeID string
	Scheme   Scheme
	Selectors
}

// Edit updates a workflow scheme. Editing a scheme that is in active use
// fails remotely unless the payload asks for a draft update instead.
func (s *Service) Edit(ctx context.Context, req EditRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodPut, "", req.SchemeID, req.Scheme, queryValues(req.Selectors)))
}

// GetRequest fetches the scheme identified by SchemeID.
type GetRequest struct {
	SchemeID string
	// ReturnDraftIfExists makes the server return the scheme's draft, when
	// one exists, in place of the scheme itself.
	ReturnDraftIfExists bool
	Selectors
}

// Get returns a workflow scheme.
func (s *Service) Get(ctx context.Context, req GetRequest) (*jira.Response, error) {
	q := queryValues(req.Selectors, flag{"returnDraftIfExists", req.ReturnDraftIfExists})
	return s.client.Do(ctx, s.schemeRequest(http.MethodGet, "", req.SchemeID, nil, q))
}

// DeleteRequest removes the scheme identified by SchemeID.
type DeleteRequest struct {
	SchemeID string
}

// Delete removes a workflow scheme. Schemes in active use are rejected by
// the server.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodDelete, "", req.SchemeID, nil, nil))
}

// CreateDraftRequest creates a draft for the scheme identified by SchemeID.
type CreateDraftRequest struct {
	SchemeID string
	Selectors
}

// CreateDraft creates a draft copy of a workflow scheme. The parent scheme
// must be active for the server to accept the draft.
func (s *Service) CreateDraft(ctx context.Context, req CreateDraftRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodPost, _suffixCreateDraft, req.SchemeID, nil, queryValues(req.Selectors)))
}

// GetDefaultWorkflowRequest fetches the default workflow of a scheme.
type GetDefaultWorkflowRequest struct {
	SchemeID            string
	ReturnDraftIfExists bool
	Selectors
}

// GetDefaultWorkflow returns the workflow assigned to issue types without
// an explicit mapping.
func (s *Service) GetDefaultWorkflow(ctx context.Context, req GetDefaultWorkflowRequest) (*jira.Response, error) {
	q := queryValues(req.Selectors, flag{"returnDraftIfExists", req.ReturnDraftIfExists})
	return s.client.Do(ctx, s.schemeRequest(http.MethodGet, _suffixDefault, req.SchemeID, nil, q))
}

// SetDefaultWorkflowRequest assigns the default workflow of a scheme.
type SetDefaultWorkflowRequest struct {
	SchemeID string
	// Workflow is the name of the workflow to assign.
	Workflow string
	// UpdateDraftIfNeeded redirects the change to the scheme's draft when
	// the scheme itself cannot be edited, creating the draft if necessary.
	UpdateDraftIfNeeded bool
	Selectors
}

// SetDefaultWorkflow assigns the default workflow of a workflow scheme.
func (s *Service) SetDefaultWorkflow(ctx context.Context, req SetDefaultWorkflowRequest) (*jira.Response, error) {
	body := DefaultWorkflow{Workflow: req.Workflow, UpdateDraftIfNeeded: req.UpdateDraftIfNeeded}
	return s.client.Do(ctx, s.schemeRequest(http.MethodPut, _suffixDefault, req.SchemeID, body, queryValues(req.Selectors)))
}

// RemoveDefaultWorkflowRequest resets the default workflow of a scheme.
type RemoveDefaultWorkflowRequest struct {
	SchemeID            string
	UpdateDraftIfNeeded bool
	Selectors
}

// RemoveDefaultWorkflow resets the default workflow of a workflow scheme
// back to the system workflow.
func (s *Service) RemoveDefaultWorkflow(ctx context.Context, req RemoveDefaultWorkflowRequest) (*jira.Response, error) {
	q := queryValues(req.Selectors, flag{"updateDraftIfNeeded", req.UpdateDraftIfNeeded})
	return s.client.Do(ctx, s.schemeRequest(http.MethodDelete, _suffixDefault, req.SchemeID, nil, q))
}

// GetDraftRequest fetches the draft of the scheme identified by SchemeID.
type GetDraftRequest struct {
	SchemeID string
	Selectors
}

// GetDraft returns the draft of a workflow scheme.
func (s *Service) GetDraft(ctx context.Context, req GetDraftRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodGet, _suffixDraft, req.SchemeID, nil, queryValues(req.Selectors)))
}

// EditDraftRequest updates the draft of the scheme identified by SchemeID.
type EditDraftRequest struct {
	SchemeID string
	Draft    Scheme
	Selectors
}

// EditDraft updates the draft of a workflow scheme. Drafts stay editable
// even when the parent scheme is locked by active use.
func (s *Service) EditDraft(ctx context.Context, req EditDraftRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodPut, _suffixDraft, req.SchemeID, req.Draft, queryValues(req.Selectors)))
}

// DeleteDraftRequest discards the draft of the scheme identified by SchemeID.
type DeleteDraftRequest struct {
	SchemeID string
	Selectors
}

// DeleteDraft discards the draft of a workflow scheme.
func (s *Service) DeleteDraft(ctx context.Context, req DeleteDraftRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodDelete, _suffixDraft, req.SchemeID, nil, queryValues(req.Selectors)))
}

// GetDraftDefaultWorkflowRequest fetches the default workflow of a draft.
type GetDraftDefaultWorkflowRequest struct {
	SchemeID string
	Selectors
}

// GetDraftDefaultWorkflow returns the default workflow of a scheme's draft.
func (s *Service) GetDraftDefaultWorkflow(ctx context.Context, req GetDraftDefaultWorkflowRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodGet, _suffixDraftDefault, req.SchemeID, nil, queryValues(req.Selectors)))
}

// SetDraftDefaultWorkflowRequest assigns the default workflow of a draft.
type SetDraftDefaultWorkflowRequest struct {
	SchemeID            string
	Workflow            string
	UpdateDraftIfNeeded bool
	Selectors
}

// SetDraftDefaultWorkflow assigns the default workflow of a scheme's draft.
func (s *Service) SetDraftDefaultWorkflow(ctx context.Context, req SetDraftDefaultWorkflowRequest) (*jira.Response, error) {
	body := DefaultWorkflow{Workflow: req.Workflow, UpdateDraftIfNeeded: req.UpdateDraftIfNeeded}
	return s.client.Do(ctx, s.schemeRequest(http.MethodPut, _suffixDraftDefault, req.SchemeID, body, queryValues(req.Selectors)))
}

// RemoveDraftDefaultWorkflowRequest resets the default workflow of a draft.
type RemoveDraftDefaultWorkflowRequest struct {
	SchemeID string
	Selectors
}

// RemoveDraftDefaultWorkflow resets the default workflow of a scheme's
// draft back to the system workflow.
func (s *Service) RemoveDraftDefaultWorkflow(ctx context.Context, req RemoveDraftDefaultWorkflowRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.schemeRequest(http.MethodDelete, _suffixDraftDefault, req.SchemeID, nil, queryValues(req.Selectors)))
}

// GetIssueTypeRequest fetches the workflow mapped to an issue type.
type GetIssueTypeRequest struct {
	SchemeID            string
	IssueType           string
	ReturnDraftIfExists bool
	Selectors
}

// GetIssueType returns the workflow mapping of a single issue type.
func (s *Service) GetIssueType(ctx context.Context, req GetIssueTypeRequest) (*jira.Response, error) {
	q := queryValues(req.Selectors, flag{"returnDraftIfExists", req.ReturnDraftIfExists})
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodGet, _suffixIssueType, req.SchemeID, req.IssueType, nil, q))
}

// SetIssueTypeRequest maps an issue type to a workflow.
type SetIssueTypeRequest struct {
	SchemeID  string
	IssueType string
	Mapping   IssueTypeMapping
}

// SetIssueType maps an issue type to a workflow within a scheme.
func (s *Service) SetIssueType(ctx context.Context, req SetIssueTypeRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodPut, _suffixIssueType, req.SchemeID, req.IssueType, req.Mapping, nil))
}

// DeleteIssueTypeRequest removes the workflow mapping of an issue type.
type DeleteIssueTypeRequest struct {
	SchemeID            string
	IssueType           string
	UpdateDraftIfNeeded bool
}

// DeleteIssueType removes the workflow mapping of an issue type, making the
// issue type fall back to the scheme's default workflow.
func (s *Service) DeleteIssueType(ctx context.Context, req DeleteIssueTypeRequest) (*jira.Response, error) {
	q := queryValues(Selectors{}, flag{"updateDraftIfNeeded", req.UpdateDraftIfNeeded})
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodDelete, _suffixIssueType, req.SchemeID, req.IssueType, nil, q))
}

// GetDraftIssueTypeRequest fetches an issue type mapping from a draft.
type GetDraftIssueTypeRequest struct {
	SchemeID  string
	IssueType string
}

// GetDraftIssueType returns the workflow mapping of a single issue type
// within a scheme's draft.
func (s *Service) GetDraftIssueType(ctx context.Context, req GetDraftIssueTypeRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodGet, _suffixDraftIssueType, req.SchemeID, req.IssueType, nil, nil))
}

// SetDraftIssueTypeRequest maps an issue type to a workflow within a draft.
type SetDraftIssueTypeRequest struct {
	SchemeID  string
	IssueType string
	Mapping   IssueTypeMapping
}

// SetDraftIssueType maps an issue type to a workflow within a scheme's
// draft.
func (s *Service) SetDraftIssueType(ctx context.Context, req SetDraftIssueTypeRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodPut, _suffixDraftIssueType, req.SchemeID, req.IssueType, req.Mapping, nil))
}

// DeleteDraftIssueTypeRequest removes an issue type mapping from a draft.
type DeleteDraftIssueTypeRequest struct {
	SchemeID  string
	IssueType string
}

// DeleteDraftIssueType removes the workflow mapping of an issue type from a
// scheme's draft.
func (s *Service) DeleteDraftIssueType(ctx context.Context, req DeleteDraftIssueTypeRequest) (*jira.Response, error) {
	return s.client.Do(ctx, s.issueTypeRequest(http.MethodDelete, _suffixDraftIssueType, req.SchemeID, req.IssueType, nil, nil))
}

// schemeRequest shapes the descriptor of a scheme-scoped operation: the
// scheme path plus the operation suffix, with the remaining attributes
// passed through untouched.
func (s *Service) schemeRequest(method, suffix, schemeID string, body any, query url.Values) *jira.Request {
	return &jira.Request{
		Path:   _schemePath + suffix,
		Method: method,
		Body:   body,
		Query:  query,
		Params: map[string]string{"schemeID": schemeID},
	}
}

func (s *Service) issueTypeRequest(method, suffix, schemeID, issueType string, body any, query url.Values) *jira.Request {
	req := s.schemeRequest(method, suffix, schemeID, body, query)
	req.Params["issueType"] = issueType
	return req
}
