package ircloop

// closedState is the terminal absorber: every command is a no-op except a
// SendMessage carrying a reply slot, which is answered with the stored
// cause.
type closedState struct {
	cause *SharedError
}

func newClosedState(cause *SharedError) *closedState {
	return &closedState{cause: cause}
}

func (s *closedState) handle(_ *Worker, cmd Command) connState {
	if cmd.Kind == KindSendMessage && cmd.ReplySlot != nil {
		select {
		case cmd.ReplySlot <- s.cause:
		default:
		}
	}
	return s
}
