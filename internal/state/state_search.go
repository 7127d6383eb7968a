package state

import (
	search "github.com/kk-code-lab/rpager/internal/search"
)

// beginSearch prompts for a query while holding the input lock, then compiles
// it and jumps to the first match at or below the current view.
func (r *StateReducer) beginSearch(state *PagerState, mode SearchMode) error {
	if state.Search == nil || r.queries == nil {
		return nil
	}
	state.Search.Mode = mode

	r.inputLock.Lock()
	query, err := r.queries.ReadQuery(mode, state.Rows)
	r.inputLock.Unlock()
	if err != nil {
		return err
	}
	if query == "" {
		return nil
	}

	pattern, err := r.compiler.Compile(query)
	if err != nil {
		r.logger.Debug("search query rejected", "query", query, "error", err)
		state.Search.Pattern = nil
		state.Search.Matches = nil
		state.Search.Cursor = 0
		state.Message = InvalidRegexMessage
		return nil
	}

	state.Search.Pattern = pattern
	state.FormatLines()
	state.jumpToFirstMatch()
	return nil
}

func (p *PagerState) jumpToFirstMatch() {
	s := p.Search
	if len(s.Matches) == 0 {
		s.Cursor = 0
		return
	}
	idx := search.FirstAtOrAfter(s.Matches, p.UpperMark)
	if idx < 0 {
		idx = len(s.Matches) - 1
	}
	s.Cursor = idx
	p.UpperMark = s.Matches[idx]
}

// nextMatch only advances the cursor while the view can still scroll, then
// puts the focused match at the top of the view.
func (p *PagerState) nextMatch() {
	s := p.Search
	if len(s.Matches) == 0 {
		return
	}
	if s.Cursor < len(s.Matches)-1 && p.UpperMark+p.TextRows() < p.NumLines() {
		s.Cursor++
	}
	p.UpperMark = s.Matches[s.Cursor]
}

// prevMatch only scrolls when the previous match sits above the view.
func (p *PagerState) prevMatch() {
	s := p.Search
	if len(s.Matches) == 0 {
		return
	}
	if s.Cursor > 0 {
		s.Cursor--
	}
	if s.Cursor >= len(s.Matches) {
		s.Cursor = len(s.Matches) - 1
	}
	if y := s.Matches[s.Cursor]; y < p.UpperMark {
		p.UpperMark = y
	}
}
