// Package chat talks to an OpenRouter-compatible chat completion endpoint.
//
// Client sends {model, messages, stream} and reads either a single JSON
// completion or a server-sent event stream of deltas. Session keeps the
// history of one assistant conversation the way the editor's chat panel
// does.
package chat
