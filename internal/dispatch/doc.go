// Package dispatch correlates tool calls handed to the client with the
// results it sends back, matching them by id and bounding each call's wait.
package dispatch
