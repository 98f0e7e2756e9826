package ircloop

import (
	"context"
	"sync"

	"github.com/kstaniek/go-twitch-irc/internal/irc"
)

// Worker is the loop worker: the only component allowed to mutate the
// connection's state. It owns the single receiver of the command channel;
// every producer (user API, init task, forwarders, ping task) only ever
// holds a send side gated on ownerCtx, which stands in for the weak
// reference the original design holds to the channel.
type Worker struct {
	cfg        Config
	cmds       chan Command
	events     chan IncomingEvent
	closeEvent sync.Once
	ownerCtx   context.Context
	cancel     context.CancelFunc
}

// Start builds a Worker for cfg and launches its init task and run loop.
// The worker's lifetime is bound to parent: cancelling parent closes the
// connection exactly as calling Close does.
func Start(parent context.Context, cfg Config) *Worker {
	ctx, cancel := context.WithCancel(parent)
	w := &Worker{
		cfg:      cfg,
		cmds:     make(chan Command, 256),
		events:   make(chan IncomingEvent, 64),
		ownerCtx: ctx,
		cancel:   cancel,
	}
	go runInit(w)
	go w.run()
	return w
}

// Events returns the stream of lifecycle and message events. It is closed
// exactly once, as soon as StateClosed is emitted — the command loop keeps
// running after that to service late sends, but the outward event stream
// ends there, matching how the terminal state drops its outgoing sender.
func (w *Worker) Events() <-chan IncomingEvent { return w.events }

// closeEvents closes the events channel exactly once, whether reached by
// entering closedState or by the owner calling Close before the connection
// ever got that far.
func (w *Worker) closeEvents() { w.closeEvent.Do(func() { close(w.events) }) }

// Send enqueues an outgoing frame, optionally wired to a reply slot that
// will be resolved exactly once: with nil on a successful transmit, a
// send-specific error, or the connection's terminal cause if it is already
// closed. If the worker itself was already closed when Send is called, the
// reply slot receives context.Canceled instead.
func (w *Worker) Send(frame irc.Message, reply chan<- error) {
	cmd := Command{Kind: KindSendMessage, SendFrame: frame, ReplySlot: reply}
	select {
	case w.cmds <- cmd:
	case <-w.ownerCtx.Done():
		if reply != nil {
			select {
			case reply <- context.Canceled:
			default:
			}
		}
	}
}

// Close cancels the worker's owning context, the substitute for dropping
// the last strong reference to the command channel: the run loop exits,
// auxiliary tasks' next delivery attempt observes ownerCtx done, and the
// init task discards any in-flight result.
func (w *Worker) Close() { w.cancel() }

// run is the sole mutator of state. It keeps draining cmds even after
// reaching closedState, since Closed is a terminal absorber, not a reason
// to stop servicing late SendMessage replies; it only stops once the owner
// calls Close.
func (w *Worker) run() {
	defer w.closeEvents()
	var state connState = newInitializingState()
	for {
		select {
		case cmd := <-w.cmds:
			state = state.handle(w, cmd)
		case <-w.ownerCtx.Done():
			return
		}
	}
}

// emit publishes ev, giving up only if the owner has gone away.
func (w *Worker) emit(ev IncomingEvent) {
	select {
	case w.events <- ev:
	case <-w.ownerCtx.Done():
	}
}

// deliver attempts to enqueue cmd from an auxiliary task, giving up
// silently if the owner has gone away — the "weak handle could not be
// upgraded" case.
func (w *Worker) deliver(cmd Command) {
	select {
	case w.cmds <- cmd:
	case <-w.ownerCtx.Done():
	}
}
