// Package cli provides the interactive gophnotes command-line client.
//
// Every note command works against the local store and returns at once;
// a background scheduler pushes queued edits and pulls remote changes
// while the server is reachable. The prompt shows the signed-in user,
// connectivity and the number of edits still waiting to be pushed.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
