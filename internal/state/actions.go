package state

import "github.com/gdamore/tcell/v2"

// Event is the only way to mutate a PagerState. The set is closed: every
// variant is declared in this file.
type Event interface {
	isEvent()
}

// InputEvent is an intent produced from terminal input by an InputClassifier.
type InputEvent interface {
	isInputEvent()
}

// ===== DATA EVENTS =====

// SetDataEvent replaces the whole document.
type SetDataEvent struct {
	Text string
}

// AppendDataEvent appends to the document. Text is concatenated as-is, so a
// line is only terminated by an explicit newline.
type AppendDataEvent struct {
	Text string
}

// ===== CONFIGURATION EVENTS =====

type SetPromptEvent struct {
	Text string
}

// SendMessageEvent shows a transient message in place of the prompt.
type SendMessageEvent struct {
	Text string
}

type SetLineNumbersEvent struct {
	Mode LineNumbers
}

type SetExitStrategyEvent struct {
	Strategy ExitStrategy
}

// SetRunNoOverflowEvent only affects the static PageAll path.
type SetRunNoOverflowEvent struct {
	Enabled bool
}

type SetInputClassifierEvent struct {
	Classifier InputClassifier
}

type AddExitCallbackEvent struct {
	Callback func()
}

// UserInputEvent wraps an intent coming from the terminal.
type UserInputEvent struct {
	Input InputEvent
}

// TerminalEvent is a raw key or resize event. The reducer classifies it with
// the state's InputClassifier at the moment it is applied, so a burst of keys
// each sees the effect of the one before.
type TerminalEvent struct {
	Event tcell.Event
}

func (SetDataEvent) isEvent()            {}
func (AppendDataEvent) isEvent()         {}
func (SetPromptEvent) isEvent()          {}
func (SendMessageEvent) isEvent()        {}
func (SetLineNumbersEvent) isEvent()     {}
func (SetExitStrategyEvent) isEvent()    {}
func (SetRunNoOverflowEvent) isEvent()   {}
func (SetInputClassifierEvent) isEvent() {}
func (AddExitCallbackEvent) isEvent()    {}
func (UserInputEvent) isEvent()          {}
func (TerminalEvent) isEvent()           {}

// ===== INPUT INTENTS =====

type QuitInput struct{}
type RestorePromptInput struct{}

// UpdateUpperMarkInput scrolls to Mark. Out-of-range values are clamped when
// the view is drawn.
type UpdateUpperMarkInput struct {
	Mark int
}

type UpdateTermAreaInput struct {
	Cols int
	Rows int
}

type UpdateLineNumberInput struct {
	Mode LineNumbers
}

type SearchInput struct {
	Mode SearchMode
}

type NextMatchInput struct{}
type PrevMatchInput struct{}

// CustomInput carries classifier-specific intents. The dispatcher ignores it.
type CustomInput struct {
	Name  string
	Value any
}

func (QuitInput) isInputEvent()             {}
func (RestorePromptInput) isInputEvent()    {}
func (UpdateUpperMarkInput) isInputEvent()  {}
func (UpdateTermAreaInput) isInputEvent()   {}
func (UpdateLineNumberInput) isInputEvent() {}
func (SearchInput) isInputEvent()           {}
func (NextMatchInput) isInputEvent()        {}
func (PrevMatchInput) isInputEvent()        {}
func (CustomInput) isInputEvent()           {}

// Input wraps an intent as an Event.
func Input(in InputEvent) Event {
	return UserInputEvent{Input: in}
}
