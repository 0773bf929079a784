/*
Package workflowscheme covers the workflow scheme surface of the Jira REST
API: scheme creation and editing, the draft lifecycle, default workflow
assignment and per-issue-type workflow mappings.

Every operation is a pure mapping from a typed request value to a single
HTTP call executed through an injected Doer (usually a *jira.Client).
Operations validate nothing themselves; malformed identifiers are rejected
by the remote server.

A workflow scheme that is in active use is locked against direct edits; the
draft operations work on an uncommitted copy of such a scheme that stays
editable until published.
*/
package workflowscheme
