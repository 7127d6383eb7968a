package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	search "github.com/kk-code-lab/rpager/internal/search"
	textutil "github.com/kk-code-lab/rpager/internal/textutil"
)

// DefaultPrompt is shown in the bottom bar until the host sets its own.
const DefaultPrompt = "rpager"

// ErrAlreadyRunning is raised when a session is prepared twice.
var ErrAlreadyRunning = errors.New("pager session already running")

// ===== CONFIGURATION VALUES =====

// LineNumbers controls whether rendered lines carry a "{n}. " prefix.
type LineNumbers int

const (
	LineNumbersDisabled LineNumbers = iota
	LineNumbersEnabled
	// AlwaysOff and AlwaysOn are sticky: Not() leaves them unchanged.
	LineNumbersAlwaysOff
	LineNumbersAlwaysOn
)

// Not is the runtime toggle. Sticky modes are fixed points.
func (l LineNumbers) Not() LineNumbers {
	switch l {
	case LineNumbersEnabled:
		return LineNumbersDisabled
	case LineNumbersDisabled:
		return LineNumbersEnabled
	default:
		return l
	}
}

// IsOn reports whether numbers are drawn.
func (l LineNumbers) IsOn() bool {
	return l == LineNumbersEnabled || l == LineNumbersAlwaysOn
}

func (l LineNumbers) String() string {
	switch l {
	case LineNumbersDisabled:
		return "off"
	case LineNumbersEnabled:
		return "on"
	case LineNumbersAlwaysOff:
		return "always-off"
	case LineNumbersAlwaysOn:
		return "always-on"
	default:
		return fmt.Sprintf("LineNumbers(%d)", int(l))
	}
}

// ParseLineNumbers accepts the names produced by String.
func ParseLineNumbers(s string) (LineNumbers, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "disabled":
		return LineNumbersDisabled, nil
	case "on", "enabled":
		return LineNumbersEnabled, nil
	case "always-off", "alwaysoff":
		return LineNumbersAlwaysOff, nil
	case "always-on", "alwayson":
		return LineNumbersAlwaysOn, nil
	default:
		return LineNumbersDisabled, fmt.Errorf("unknown line number mode %q", s)
	}
}

// ExitStrategy decides what quitting the pager does to the host process.
type ExitStrategy int

const (
	// ExitProcess terminates the whole program after cleanup.
	ExitProcess ExitStrategy = iota
	// ExitPager only tears the pager down and returns control to the host.
	ExitPager
)

func (e ExitStrategy) String() string {
	if e == ExitPager {
		return "pager"
	}
	return "process"
}

// SearchMode is the direction of the last search prompt.
type SearchMode int

const (
	SearchUnknown SearchMode = iota
	SearchForward
	SearchReverse
)

func (m SearchMode) String() string {
	switch m {
	case SearchForward:
		return "forward"
	case SearchReverse:
		return "reverse"
	default:
		return "unknown"
	}
}

// ===== INPUT CLASSIFICATION =====

// View is the read-only slice of state an input classifier may consult.
type View struct {
	UpperMark   int
	Rows        int
	Cols        int
	NumLines    int
	LineNumbers LineNumbers
	SearchMode  SearchMode
	HasMessage  bool
}

// TextRows is the number of rows available for document lines.
func (v View) TextRows() int {
	if v.Rows <= 1 {
		return 1
	}
	return v.Rows - 1
}

// InputClassifier maps a raw terminal event to an input intent. A nil result
// means the event is ignored.
type InputClassifier interface {
	ClassifyInput(ev tcell.Event, view View) InputEvent
}

// InputClassifierFunc adapts a plain function to InputClassifier.
type InputClassifierFunc func(ev tcell.Event, view View) InputEvent

func (f InputClassifierFunc) ClassifyInput(ev tcell.Event, view View) InputEvent {
	return f(ev, view)
}

// ===== STATE DEFINITIONS =====

// SearchState holds search results. It is nil when search is compiled out.
type SearchState struct {
	Pattern search.Matcher
	Mode    SearchMode
	// Matches holds display-line indices with at least one hit, ascending.
	Matches []int
	// Cursor indexes Matches.
	Cursor int
}

// StaticState only matters for the one-shot PageAll path.
type StaticState struct {
	RunNoOverflow bool
}

// PagerState is the single source of truth for a pager session.
type PagerState struct {
	// Raw is the text as received; appends concatenate.
	Raw            string
	FormattedLines []string
	UpperMark      int
	Rows           int
	Cols           int

	LineNumbers LineNumbers
	Prompt      string
	// Message replaces Prompt in the bottom bar while non-empty.
	Message      string
	ExitStrategy ExitStrategy

	InputClassifier InputClassifier
	ExitCallbacks   []func()

	Search *SearchState
	Static *StaticState

	running bool
	exited  bool
}

// NewPagerState returns a state with default configuration. Search support
// depends on the build configuration.
func NewPagerState() *PagerState {
	return &PagerState{
		Prompt:       DefaultPrompt,
		ExitStrategy: ExitProcess,
		LineNumbers:  LineNumbersDisabled,
		Rows:         1,
		Cols:         1,
		Search:       newSearchState(),
	}
}

// NewStaticPagerState is NewPagerState with static-output settings enabled.
func NewStaticPagerState() *PagerState {
	p := NewPagerState()
	p.Static = &StaticState{}
	return p
}

// Prepare records the terminal size and wraps any text queued before start.
// Calling it on a running session is a programming error.
func (p *PagerState) Prepare(cols, rows int) {
	if p.running {
		panic(ErrAlreadyRunning)
	}
	p.running = true
	p.Cols = cols
	p.Rows = rows
	p.FormatLines()
}

// Exited reports whether the exit path has run.
func (p *PagerState) Exited() bool {
	return p.exited
}

// Exit marks the session ended and runs exit callbacks once, in order.
func (p *PagerState) Exit() {
	if p.exited {
		return
	}
	p.exited = true
	for _, cb := range p.ExitCallbacks {
		if cb != nil {
			cb()
		}
	}
}

// NumLines is the number of display lines.
func (p *PagerState) NumLines() int {
	return len(p.FormattedLines)
}

// TextRows is the number of rows left for document lines under the bottom bar.
func (p *PagerState) TextRows() int {
	return p.View().TextRows()
}

// ClampUpperMark keeps the view full when there is enough content and never
// past the end. Applying it twice changes nothing.
func ClampUpperMark(upperMark, rows, numLines int) int {
	if numLines <= rows {
		return 0
	}
	return min(max(upperMark, 0), numLines-rows)
}

// View snapshots what an input classifier may see. UpperMark is reported as
// it will be drawn, so relative scrolling starts from the visible line.
func (p *PagerState) View() View {
	mode := SearchUnknown
	if p.Search != nil {
		mode = p.Search.Mode
	}
	textRows := View{Rows: p.Rows}.TextRows()
	return View{
		UpperMark:   ClampUpperMark(p.UpperMark, textRows, len(p.FormattedLines)),
		Rows:        p.Rows,
		Cols:        p.Cols,
		NumLines:    len(p.FormattedLines),
		LineNumbers: p.LineNumbers,
		SearchMode:  mode,
		HasMessage:  p.Message != "",
	}
}

// StatusText is what the bottom bar shows.
func (p *PagerState) StatusText() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Prompt
}

// FormatLines rewraps Raw for the current width and line-number mode and
// rebuilds the search match index against the new display lines. Before
// Prepare the width is unknown, so wrapping waits until then.
func (p *PagerState) FormatLines() {
	if !p.running {
		return
	}
	p.FormattedLines = textutil.WrapNumbered(p.Raw, p.Cols, p.LineNumbers.IsOn())
	if p.Search != nil {
		if p.Search.Pattern != nil {
			p.Search.Matches = search.Index(p.FormattedLines, p.Search.Pattern)
		} else {
			p.Search.Matches = nil
		}
		if p.Search.Cursor >= len(p.Search.Matches) {
			p.Search.Cursor = max(0, len(p.Search.Matches)-1)
		}
	}
}

// AppendText adds text to Raw and rewraps.
func (p *PagerState) AppendText(text string) {
	p.Raw += text
	p.FormatLines()
}
