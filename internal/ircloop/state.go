package ircloop

// connState is the connection's current lifecycle state. Every handler has
// the same total shape: consume the current state and a command, return
// the next state. Mutation in place is expressed by returning the receiver
// itself; a transition is expressed by returning a different concrete type.
type connState interface {
	handle(w *Worker, cmd Command) connState
}
