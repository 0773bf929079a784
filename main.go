package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"go.uber.org/zap"

	"github.com/luizaranda/go-jira/pkg/jira"
	"github.com/luizaranda/go-jira/pkg/jira/workflowscheme"
	"github.com/luizaranda/go-jira/pkg/jiratest"
	"github.com/luizaranda/go-jira/pkg/otel"
	"github.com/luizaranda/go-jira/pkg/transport/httpclient"
)

/*
* Example run of the workflow scheme client against the in-process fake.
 */
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	otelShutdown, err := otel.Start(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(); err != nil {
			logger.Warn("otel shutdown", zap.Error(err))
		}
	}()

	server := jiratest.NewServer()
	defer server.Close()

	client, err := jira.NewClient(
		jira.Config{BaseURL: server.URL()},
		jira.WithBasicAuth("automation", "api-token"),
		jira.WithTargetID("jira-local"),
		jira.WithRequester(httpclient.New(
			httpclient.FollowRedirects(true),
			httpclient.WithRequestLogging(logger),
		)),
	)
	if err != nil {
		return err
	}

	schemes := workflowscheme.NewService(client)

	res, err := schemes.Create(ctx, workflowscheme.CreateRequest{
		Scheme: workflowscheme.Scheme{
			Name:            "Delivery",
			Description:     "Workflow scheme of the delivery projects",
			DefaultWorkflow: "jira",
			IssueTypeMappings: map[string]string{
				"10000": "build-workflow",
			},
		},
	})
	if err != nil {
		return err
	}

	var created workflowscheme.Scheme
	if err := res.JSON(&created); err != nil {
		return err
	}

	schemeID := strconv.FormatInt(created.ID, 10)
	logger.Info("created workflow scheme", zap.String("id", schemeID), zap.String("name", created.Name))

	if _, err := schemes.SetDefaultWorkflow(ctx, workflowscheme.SetDefaultWorkflowRequest{
		SchemeID:            schemeID,
		Workflow:            "delivery-workflow",
		UpdateDraftIfNeeded: true,
	}); err != nil {
		return err
	}

	if _, err = schemes.CreateDraft(ctx, workflowscheme.CreateDraftRequest{SchemeID: schemeID}); err != nil {
		return err
	}

	res, err = schemes.GetDraft(ctx, workflowscheme.GetDraftRequest{
		Selectors: workflowscheme.Selectors{Fields: []string{"name", "defaultWorkflow"}},
		SchemeID:  schemeID,
	})
	if err != nil {
		return err
	}

	var draft workflowscheme.Scheme
	if err := res.JSON(&draft); err != nil {
		return err
	}

	fmt.Printf("draft of scheme %s uses default workflow %q\n", schemeID, draft.DefaultWorkflow)
	return nil
}
