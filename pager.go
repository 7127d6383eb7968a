package rpager

import (
	"context"
	"io"
	"os"

	"github.com/kk-code-lab/rpager/internal/app"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
	"github.com/kk-code-lab/rpager/internal/ui/input"
)

// Pager is a handle to one pager session. All methods are safe for
// concurrent use.
type Pager struct {
	session *app.Session
}

// New creates an interactive pager with the default prompt, key bindings and
// exit strategy.
func New(opts ...Option) *Pager {
	return newPager(statepkg.NewPagerState(), opts)
}

// NewStatic creates a pager meant for PageAll, with static output settings
// such as SetRunNoOverflow available from the start.
func NewStatic(opts ...Option) *Pager {
	return newPager(statepkg.NewStaticPagerState(), opts)
}

func newPager(state *statepkg.PagerState, opts []Option) *Pager {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	state.InputClassifier = input.NewDefaultClassifier()
	return &Pager{session: app.NewSession(state, o.cfg)}
}

// Send queues ev. It fails with ErrClosed after the pager has exited.
func (p *Pager) Send(ev Event) error {
	return p.session.Send(ev)
}

// SetText replaces the displayed text.
func (p *Pager) SetText(text string) error {
	return p.Send(SetDataEvent{Text: text})
}

// PushStr appends text. Lines end only at explicit newlines.
func (p *Pager) PushStr(text string) error {
	return p.Send(AppendDataEvent{Text: text})
}

// Write implements io.Writer by appending to the text.
func (p *Pager) Write(b []byte) (int, error) {
	if err := p.PushStr(string(b)); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *Pager) SetPrompt(text string) error {
	return p.Send(SetPromptEvent{Text: text})
}

// SendMessage shows text in place of the prompt until the user presses Enter.
func (p *Pager) SendMessage(text string) error {
	return p.Send(SendMessageEvent{Text: text})
}

func (p *Pager) SetLineNumbers(mode LineNumbers) error {
	return p.Send(SetLineNumbersEvent{Mode: mode})
}

func (p *Pager) SetExitStrategy(strategy ExitStrategy) error {
	return p.Send(SetExitStrategyEvent{Strategy: strategy})
}

// SetRunNoOverflow makes PageAll print short text directly instead of paging.
func (p *Pager) SetRunNoOverflow(enabled bool) error {
	return p.Send(SetRunNoOverflowEvent{Enabled: enabled})
}

func (p *Pager) SetInputClassifier(c InputClassifier) error {
	return p.Send(SetInputClassifierEvent{Classifier: c})
}

// AddExitCallback registers fn to run once when the pager exits.
func (p *Pager) AddExitCallback(fn func()) error {
	return p.Send(AddExitCallbackEvent{Callback: fn})
}

// Run takes over the terminal until the user quits, ctx is cancelled or
// terminal I/O fails. With ExitProcess, quitting terminates the program.
func (p *Pager) Run(ctx context.Context) error {
	return p.session.Run(ctx)
}

// Start runs the pager on its own goroutine. The channel receives Run's
// result and is then closed.
func (p *Pager) Start(ctx context.Context) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- p.session.Run(ctx)
	}()
	return result
}

// RunStatic pages everything sent so far to out. See PageAll.
func (p *Pager) RunStatic(ctx context.Context, out io.Writer) error {
	return p.session.RunStatic(ctx, out)
}

// PageAll shows everything sent to p so far. When stdout is not a terminal
// the text is written as-is; with SetRunNoOverflow(true), text that fits on
// one screen is printed without paging.
func PageAll(p *Pager) error {
	return p.RunStatic(context.Background(), os.Stdout)
}
