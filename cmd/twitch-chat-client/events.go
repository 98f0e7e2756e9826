package main

import (
	"log/slog"

	"github.com/kstaniek/go-twitch-irc/internal/command"
	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

func joinFrame(channel string) irc.Message {
	return irc.New("JOIN", "#"+channel)
}

// logMessage logs an incoming server message; the connection core already
// counts every received frame in messages_received_total.
func logMessage(l *slog.Logger, msg command.ServerMessage) {
	switch m := msg.(type) {
	case command.PrivmsgMessage:
		l.Info("privmsg", "channel", m.Channel, "from", m.SenderLogin, "text", m.Text, "bits", m.Bits)
	case command.JoinMessage:
		l.Info("join", "channel", m.Channel, "user", m.UserLogin)
	case command.ClearmsgMessage:
		l.Info("clearmsg", "channel", m.Channel, "login", m.Login, "target_msg_id", m.TargetMsgID)
	case command.ReconnectMessage:
		l.Warn("reconnect_requested")
	default:
		l.Debug("generic_message", "command", msg.Raw().Command)
	}
}
