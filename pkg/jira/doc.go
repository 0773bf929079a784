/*
Package jira implements the core client used by the API surface packages of
this module. It turns a Request value (relative path, method, JSON body,
query values) into an executed HTTP call against a configured Jira base URL,
delegating the actual execution to an injected Requester.

The client performs no interpretation of response bodies and keeps no state
between calls; it is safe for concurrent use by multiple goroutines and is
expected to be created once and shared across the lifetime of the
application.
*/
package jira
