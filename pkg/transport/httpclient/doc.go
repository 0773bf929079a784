/*
Package httpclient provides users with a friendlier API for creating HTTP
Requesters than the standard library does. It assembles the decorators in
[pkg/transport] into ready-to-use clients, and extends them with retry
support over rewindable request bodies.
*/
package httpclient
