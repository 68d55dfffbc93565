// Package gonwjs opens an NW.js GUI application and exchanges named,
// JSON-encoded events with it over a pair of named pipes.
//
// The host spawns the NW.js executable with the app root and a
// session-private channel directory as arguments. Both sides then
// exchange newline-delimited JSON frames: the host emits events with
// [Emit], and events emitted by the GUI are dispatched to handlers
// registered with [On].
//
//	err := gonwjs.Run("path/to/my_app", func(s *gonwjs.Session) error {
//		return s.Emit("hello", "Hello JavaScript World!")
//	})
//
// Exactly one session can be open at a time. The session closes when
// [Close] is called, when the user closes the GUI window, or when the
// Run scope returns.
package gonwjs
