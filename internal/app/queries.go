package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/rpager/internal/search"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
)

// promptQueries runs the search prompt on the session's terminal. It is only
// called by the reducer, so reading state here is safe.
type promptQueries struct {
	term  Terminal
	state *statepkg.PagerState
	// done aborts a prompt that is waiting for keys.
	done <-chan struct{}
}

func (q promptQueries) ReadQuery(mode statepkg.SearchMode, rows int) (string, error) {
	prefix := '/'
	if mode == statepkg.SearchReverse {
		prefix = '?'
	}
	prompt := search.Prompt{
		Keys: promptKeys{term: q.term, done: q.done},
		Out:  q.term.Writer(),
		Cols: q.state.Cols,
	}
	return prompt.ReadQuery(prefix, rows)
}

type promptKeys struct {
	term Terminal
	done <-chan struct{}
}

func (k promptKeys) ReadKey() (tcell.Event, error) {
	return k.term.ReadKey(k.done)
}
