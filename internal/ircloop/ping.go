package ircloop

import "time"

const (
	defaultPingInterval = 30 * time.Second
	defaultPongWindow   = 5 * time.Second
)

// runPing emits SendPing on a fixed cadence and, pongWindow after each one,
// CheckPong — two independent timers rather than a single repeating one,
// since the pong-check timer is reset on every ping and must not drift
// against the ping ticker.
func runPing(w *Worker, kill <-chan struct{}) {
	pongWindow := w.cfg.pongWindow()
	pingTicker := time.NewTicker(w.cfg.pingInterval())
	defer pingTicker.Stop()

	var pongTimer *time.Timer
	defer func() {
		if pongTimer != nil {
			pongTimer.Stop()
		}
	}()

	for {
		var pongC <-chan time.Time
		if pongTimer != nil {
			pongC = pongTimer.C
		}

		select {
		case <-kill:
			return
		case <-w.ownerCtx.Done():
			return
		case <-pingTicker.C:
			w.deliver(Command{Kind: KindSendPing})
			if pongTimer != nil {
				pongTimer.Stop()
			}
			pongTimer = time.NewTimer(pongWindow)
		case <-pongC:
			w.deliver(Command{Kind: KindCheckPong})
			pongTimer = nil
		}
	}
}
