// Package rpager is an embeddable terminal pager. A host creates a Pager,
// feeds it text and configuration through events, and runs it on the
// controlling terminal. Updates may be sent at any time, before or while the
// pager is running.
package rpager

import (
	"github.com/kk-code-lab/rpager/internal/app"
	"github.com/kk-code-lab/rpager/internal/search"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
	"github.com/kk-code-lab/rpager/internal/ui/input"
)

type (
	Event      = statepkg.Event
	InputEvent = statepkg.InputEvent
	View       = statepkg.View

	InputClassifier     = statepkg.InputClassifier
	InputClassifierFunc = statepkg.InputClassifierFunc

	LineNumbers  = statepkg.LineNumbers
	ExitStrategy = statepkg.ExitStrategy
	SearchMode   = statepkg.SearchMode

	Matcher         = search.Matcher
	Compiler        = search.Compiler
	RegexpCompiler  = search.RegexpCompiler
	Regexp2Compiler = search.Regexp2Compiler

	Terminal = app.Terminal
)

// Data and configuration events.
type (
	SetDataEvent            = statepkg.SetDataEvent
	AppendDataEvent         = statepkg.AppendDataEvent
	SetPromptEvent          = statepkg.SetPromptEvent
	SendMessageEvent        = statepkg.SendMessageEvent
	SetLineNumbersEvent     = statepkg.SetLineNumbersEvent
	SetExitStrategyEvent    = statepkg.SetExitStrategyEvent
	SetRunNoOverflowEvent   = statepkg.SetRunNoOverflowEvent
	SetInputClassifierEvent = statepkg.SetInputClassifierEvent
	AddExitCallbackEvent    = statepkg.AddExitCallbackEvent
	UserInputEvent          = statepkg.UserInputEvent
	TerminalEvent           = statepkg.TerminalEvent
)

// Input intents.
type (
	QuitInput             = statepkg.QuitInput
	RestorePromptInput    = statepkg.RestorePromptInput
	UpdateUpperMarkInput  = statepkg.UpdateUpperMarkInput
	UpdateTermAreaInput   = statepkg.UpdateTermAreaInput
	UpdateLineNumberInput = statepkg.UpdateLineNumberInput
	SearchInput           = statepkg.SearchInput
	NextMatchInput        = statepkg.NextMatchInput
	PrevMatchInput        = statepkg.PrevMatchInput
	CustomInput           = statepkg.CustomInput
)

const (
	LineNumbersDisabled  = statepkg.LineNumbersDisabled
	LineNumbersEnabled   = statepkg.LineNumbersEnabled
	LineNumbersAlwaysOff = statepkg.LineNumbersAlwaysOff
	LineNumbersAlwaysOn  = statepkg.LineNumbersAlwaysOn

	ExitProcess = statepkg.ExitProcess
	ExitPager   = statepkg.ExitPager

	SearchUnknown = statepkg.SearchUnknown
	SearchForward = statepkg.SearchForward
	SearchReverse = statepkg.SearchReverse

	DefaultPrompt = statepkg.DefaultPrompt
)

var (
	// ErrClosed is returned by senders once the pager has exited.
	ErrClosed = app.ErrClosed
	// ErrAlreadyRunning is returned when a Pager is run a second time.
	ErrAlreadyRunning = statepkg.ErrAlreadyRunning
)

// Input wraps an intent as an Event, for hosts that drive the pager
// programmatically.
func Input(in InputEvent) Event {
	return statepkg.Input(in)
}

// ParseLineNumbers accepts "off", "on", "always-off" and "always-on".
func ParseLineNumbers(s string) (LineNumbers, error) {
	return statepkg.ParseLineNumbers(s)
}

// DefaultInputClassifier returns the built-in less-style key bindings.
func DefaultInputClassifier() InputClassifier {
	return input.NewDefaultClassifier()
}
