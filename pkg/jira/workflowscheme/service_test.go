package workflowscheme_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizaranda/go-jira/pkg/jira"
	"github.com/luizaranda/go-jira/pkg/jira/workflowscheme"
	"github.com/luizaranda/go-jira/pkg/jiratest"
)

func newService(t *testing.T) (*workflowscheme.Service, *jiratest.Server) {
	t.Helper()

	server := jiratest.NewServer()
	t.Cleanup(server.Close)

	client, err := jira.NewClient(jira.Config{BaseURL: server.URL()})
	require.NoError(t, err)

	return workflowscheme.NewService(client), server
}

func TestServiceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	res, err := service.Create(ctx, workflowscheme.CreateRequest{
		Scheme: workflowscheme.Scheme{Name: "Delivery", DefaultWorkflow: "jira"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var created workflowscheme.Scheme
	require.NoError(t, res.JSON(&created))
	assert.Equal(t, "Delivery", created.Name)
	assert.NotZero(t, created.ID)

	recorded := server.LastRequest()
	assert.Equal(t, http.MethodPost, recorded.Method)
	assert.Equal(t, "/rest/api/2/workflowscheme", recorded.Path)
	assert.JSONEq(t, `{"name":"Delivery","defaultWorkflow":"jira"}`, string(recorded.Body))

	res, err = service.Get(ctx, workflowscheme.GetRequest{
		SchemeID: "10001",
		Selectors: workflowscheme.Selectors{
			Fields: []string{"name", "defaultWorkflow"},
		},
	})
	require.NoError(t, err)

	var got workflowscheme.Scheme
	require.NoError(t, res.JSON(&got))
	assert.Equal(t, created, got)

	recorded = server.LastRequest()
	assert.Equal(t, "/rest/api/2/workflowscheme/10001", recorded.Path)
	assert.Equal(t, "name,defaultWorkflow", recorded.Query.Get("fields"))
	assert.Equal(t, "false", recorded.Query.Get("returnDraftIfExists"))
}

func TestServiceGetPrefersDraftWhenAsked(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	server.Seed("5", workflowscheme.Scheme{ID: 5, Name: "Live"})
	server.SeedDraft("5", workflowscheme.Scheme{ID: 5, Name: "Draft copy"})

	res, err := service.Get(ctx, workflowscheme.GetRequest{SchemeID: "5"})
	require.NoError(t, err)

	var scheme workflowscheme.Scheme
	require.NoError(t, res.JSON(&scheme))
	assert.Equal(t, "Live", scheme.Name)
	assert.False(t, scheme.Draft)

	res, err = service.Get(ctx, workflowscheme.GetRequest{SchemeID: "5", ReturnDraftIfExists: true})
	require.NoError(t, err)

	require.NoError(t, res.JSON(&scheme))
	assert.Equal(t, "Draft copy", scheme.Name)
	assert.True(t, scheme.Draft)
	assert.Equal(t, "true", server.LastRequest().Query.Get("returnDraftIfExists"))
}

func TestServiceDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	server.Seed("5", workflowscheme.Scheme{ID: 5, Name: "Live", DefaultWorkflow: "jira"})

	// No draft yet.
	_, err := service.GetDraft(ctx, workflowscheme.GetDraftRequest{SchemeID: "5"})
	var jiraErr *jira.Error
	require.ErrorAs(t, err, &jiraErr)
	assert.Equal(t, http.StatusNotFound, jiraErr.StatusCode)

	res, err := service.CreateDraft(ctx, workflowscheme.CreateDraftRequest{SchemeID: "5"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "/rest/api/2/workflowscheme/5/createdraft", server.LastRequest().Path)

	res, err = service.SetDraftDefaultWorkflow(ctx, workflowscheme.SetDraftDefaultWorkflowRequest{
		SchemeID: "5",
		Workflow: "expedited",
	})
	require.NoError(t, err)

	var draft workflowscheme.Scheme
	require.NoError(t, res.JSON(&draft))
	assert.Equal(t, "expedited", draft.DefaultWorkflow)
	assert.True(t, draft.Draft)

	// The live scheme keeps its default until the draft is published.
	res, err = service.GetDefaultWorkflow(ctx, workflowscheme.GetDefaultWorkflowRequest{SchemeID: "5"})
	require.NoError(t, err)

	var def workflowscheme.DefaultWorkflow
	require.NoError(t, res.JSON(&def))
	assert.Equal(t, "jira", def.Workflow)

	res, err = service.DeleteDraft(ctx, workflowscheme.DeleteDraftRequest{SchemeID: "5"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	_, err = service.GetDraft(ctx, workflowscheme.GetDraftRequest{SchemeID: "5"})
	require.ErrorAs(t, err, &jiraErr)
	assert.Equal(t, http.StatusNotFound, jiraErr.StatusCode)
}

func TestServiceDefaultWorkflow(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	server.Seed("5", workflowscheme.Scheme{ID: 5, Name: "Live"})

	res, err := service.SetDefaultWorkflow(ctx, workflowscheme.SetDefaultWorkflowRequest{
		SchemeID:            "5",
		Workflow:            "expedited",
		UpdateDraftIfNeeded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	recorded := server.LastRequest()
	assert.Equal(t, http.MethodPut, recorded.Method)
	assert.Equal(t, "/rest/api/2/workflowscheme/5/default", recorded.Path)
	assert.JSONEq(t, `{"workflow":"expedited","updateDraftIfNeeded":true}`, string(recorded.Body))

	res, err = service.GetDefaultWorkflow(ctx, workflowscheme.GetDefaultWorkflowRequest{SchemeID: "5"})
	require.NoError(t, err)

	var def workflowscheme.DefaultWorkflow
	require.NoError(t, res.JSON(&def))
	assert.Equal(t, "expedited", def.Workflow)

	_, err = service.RemoveDefaultWorkflow(ctx, workflowscheme.RemoveDefaultWorkflowRequest{
		SchemeID:            "5",
		UpdateDraftIfNeeded: true,
	})
	require.NoError(t, err)

	recorded = server.LastRequest()
	assert.Equal(t, http.MethodDelete, recorded.Method)
	assert.Equal(t, "true", recorded.Query.Get("updateDraftIfNeeded"))

	res, err = service.GetDefaultWorkflow(ctx, workflowscheme.GetDefaultWorkflowRequest{SchemeID: "5"})
	require.NoError(t, err)
	require.NoError(t, res.JSON(&def))
	assert.Empty(t, def.Workflow)
}

func TestServiceIssueTypeMappings(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	server.Seed("5", workflowscheme.Scheme{ID: 5, Name: "Live"})

	_, err := service.SetIssueType(ctx, workflowscheme.SetIssueTypeRequest{
		SchemeID:  "5",
		IssueType: "10100",
		Mapping:   workflowscheme.IssueTypeMapping{IssueType: "10100", Workflow: "bugflow"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/rest/api/2/workflowscheme/5/issuetype/10100", server.LastRequest().Path)

	res, err := service.GetIssueType(ctx, workflowscheme.GetIssueTypeRequest{SchemeID: "5", IssueType: "10100"})
	require.NoError(t, err)

	var mapping workflowscheme.IssueTypeMapping
	require.NoError(t, res.JSON(&mapping))
	assert.Equal(t, "bugflow", mapping.Workflow)

	_, err = service.DeleteIssueType(ctx, workflowscheme.DeleteIssueTypeRequest{SchemeID: "5", IssueType: "10100"})
	require.NoError(t, err)

	_, err = service.GetIssueType(ctx, workflowscheme.GetIssueTypeRequest{SchemeID: "5", IssueType: "10100"})
	var jiraErr *jira.Error
	require.ErrorAs(t, err, &jiraErr)
	assert.Equal(t, http.StatusNotFound, jiraErr.StatusCode)
}

func TestServiceEditDraftKeepsLiveSchemeIntact(t *testing.T) {
	ctx := context.Background()
	service, server := newService(t)

	server.Seed("5", workflowscheme.Scheme{ID: 5, Name: "Live"})
	server.SeedDraft("5", workflowscheme.Scheme{ID: 5, Name: "Live"})

	res, err := service.EditDraft(ctx, workflowscheme.EditDraftRequest{
		SchemeID: "5",
		Draft:    workflowscheme.Scheme{Name: "Reworked"},
	})
	require.NoError(t, err)

	var draft workflowscheme.Scheme
	require.NoError(t, res.JSON(&draft))
	assert.Equal(t, "Reworked", draft.Name)
	assert.True(t, draft.Draft)

	res, err = service.Get(ctx, workflowscheme.GetRequest{SchemeID: "5"})
	require.NoError(t, err)

	var live workflowscheme.Scheme
	require.NoError(t, res.JSON(&live))
	assert.Equal(t, "Live", live.Name)
}

func TestServiceUnknownSchemeIsNotFound(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	_, err := service.Get(ctx, workflowscheme.GetRequest{SchemeID: "999"})

	var jiraErr *jira.Error
	require.ErrorAs(t, err, &jiraErr)
	assert.Equal(t, http.StatusNotFound, jiraErr.StatusCode)
}
