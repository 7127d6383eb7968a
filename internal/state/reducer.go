package state

import (
	"fmt"
	"log/slog"
	"sync"

	search "github.com/kk-code-lab/rpager/internal/search"
)

// InvalidRegexMessage is shown when a search query fails to compile.
const InvalidRegexMessage = "Invalid regular expression. Press Enter"

// QueryReader runs the blocking search prompt and returns the typed query.
// An empty query means the prompt was abandoned.
type QueryReader interface {
	ReadQuery(mode SearchMode, rows int) (string, error)
}

// ReducerConfig wires the reducer to its collaborators. Nil fields fall back
// to inert defaults so tests can dispatch data events without a terminal.
type ReducerConfig struct {
	Queries QueryReader
	// InputLock is held while Queries reads from the terminal so the input
	// task does not consume the same keystrokes.
	InputLock sync.Locker
	Compiler  search.Compiler
	// Cleanup tears the terminal down and honours the exit strategy.
	Cleanup func(ExitStrategy) error
	Logger  *slog.Logger
}

// ===== REDUCER =====

// StateReducer applies events to a PagerState.
type StateReducer struct {
	queries   QueryReader
	inputLock sync.Locker
	compiler  search.Compiler
	cleanup   func(ExitStrategy) error
	logger    *slog.Logger
}

// NewStateReducer creates a reducer.
func NewStateReducer(cfg ReducerConfig) *StateReducer {
	r := &StateReducer{
		queries:   cfg.Queries,
		inputLock: cfg.InputLock,
		compiler:  cfg.Compiler,
		cleanup:   cfg.Cleanup,
		logger:    cfg.Logger,
	}
	if r.inputLock == nil {
		r.inputLock = &sync.Mutex{}
	}
	if r.compiler == nil {
		r.compiler = search.RegexpCompiler{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Reduce applies one event. It only blocks while a search prompt is open.
func (r *StateReducer) Reduce(state *PagerState, event Event) (*PagerState, error) {
	switch ev := event.(type) {

	// ===== DATA =====

	case SetDataEvent:
		state.Raw = ev.Text
		state.FormatLines()
	case AppendDataEvent:
		state.AppendText(ev.Text)

	// ===== CONFIGURATION =====

	case SetPromptEvent:
		state.Prompt = ev.Text
	case SendMessageEvent:
		state.Message = ev.Text
	case SetLineNumbersEvent:
		state.LineNumbers = ev.Mode
		state.FormatLines()
	case SetExitStrategyEvent:
		state.ExitStrategy = ev.Strategy
	case SetRunNoOverflowEvent:
		if state.Static == nil {
			state.Static = &StaticState{}
		}
		state.Static.RunNoOverflow = ev.Enabled
	case SetInputClassifierEvent:
		if ev.Classifier != nil {
			state.InputClassifier = ev.Classifier
		}
	case AddExitCallbackEvent:
		if ev.Callback != nil {
			state.ExitCallbacks = append(state.ExitCallbacks, ev.Callback)
		}

	case UserInputEvent:
		return state, r.reduceInput(state, ev.Input)
	case TerminalEvent:
		if state.InputClassifier == nil || ev.Event == nil {
			return state, nil
		}
		in := state.InputClassifier.ClassifyInput(ev.Event, state.View())
		if in == nil {
			return state, nil
		}
		return state, r.reduceInput(state, in)

	default:
		return state, fmt.Errorf("unsupported event %T", event)
	}
	return state, nil
}

func (r *StateReducer) reduceInput(state *PagerState, input InputEvent) error {
	switch in := input.(type) {
	case QuitInput:
		state.Exit()
		r.logger.Debug("exit requested", "strategy", state.ExitStrategy.String())
		if r.cleanup != nil {
			return r.cleanup(state.ExitStrategy)
		}
	case RestorePromptInput:
		state.Message = ""
	case UpdateUpperMarkInput:
		state.UpperMark = max(0, in.Mark)
	case UpdateTermAreaInput:
		state.Cols = in.Cols
		state.Rows = in.Rows
		state.FormatLines()
	case UpdateLineNumberInput:
		state.LineNumbers = in.Mode
		state.FormatLines()
	case SearchInput:
		return r.beginSearch(state, in.Mode)
	case NextMatchInput:
		if state.Search != nil && state.Search.Pattern != nil {
			state.nextMatch()
		}
	case PrevMatchInput:
		if state.Search != nil && state.Search.Pattern != nil {
			state.prevMatch()
		}
	}
	return nil
}
