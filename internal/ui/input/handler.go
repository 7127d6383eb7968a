package input

import (
	"math"

	"github.com/gdamore/tcell/v2"
	statepkg "github.com/kk-code-lab/rpager/internal/state"
)

// DefaultClassifier maps less-style key bindings to pager intents.
type DefaultClassifier struct{}

// NewDefaultClassifier creates the built-in classifier.
func NewDefaultClassifier() statepkg.InputClassifier {
	return DefaultClassifier{}
}

// ClassifyInput converts a tcell event into an InputEvent, or nil.
func (DefaultClassifier) ClassifyInput(ev tcell.Event, view statepkg.View) statepkg.InputEvent {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return classifyKey(ev, view)
	case *tcell.EventResize:
		w, h := ev.Size()
		return statepkg.UpdateTermAreaInput{Cols: w, Rows: h}
	default:
		return nil
	}
}

func classifyKey(ev *tcell.EventKey, view statepkg.View) statepkg.InputEvent {
	page := view.TextRows()
	scroll := func(delta int) statepkg.InputEvent {
		return statepkg.UpdateUpperMarkInput{Mark: saturatingAdd(view.UpperMark, delta)}
	}

	// Handle special keys first
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return statepkg.QuitInput{}
	case tcell.KeyEnter:
		if view.HasMessage {
			return statepkg.RestorePromptInput{}
		}
		return scroll(1)
	case tcell.KeyDown:
		return scroll(1)
	case tcell.KeyUp:
		return scroll(-1)
	case tcell.KeyPgDn:
		return scroll(page)
	case tcell.KeyPgUp:
		return scroll(-page)
	case tcell.KeyCtrlD:
		return scroll(max(1, page/2))
	case tcell.KeyCtrlU:
		return scroll(-max(1, page/2))
	case tcell.KeyHome:
		return statepkg.UpdateUpperMarkInput{Mark: 0}
	case tcell.KeyEnd:
		return statepkg.UpdateUpperMarkInput{Mark: bottomMark(view)}
	case tcell.KeyCtrlL:
		return statepkg.UpdateLineNumberInput{Mode: view.LineNumbers.Not()}
	case tcell.KeyRune:
		// handled below
	default:
		return nil
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return statepkg.QuitInput{}
	case 'j':
		return scroll(1)
	case 'k':
		return scroll(-1)
	case ' ', 'f':
		return scroll(page)
	case 'b':
		return scroll(-page)
	case 'd':
		return scroll(max(1, page/2))
	case 'u':
		return scroll(-max(1, page/2))
	case 'g':
		return statepkg.UpdateUpperMarkInput{Mark: 0}
	case 'G':
		return statepkg.UpdateUpperMarkInput{Mark: bottomMark(view)}
	case '/':
		return statepkg.SearchInput{Mode: statepkg.SearchForward}
	case '?':
		return statepkg.SearchInput{Mode: statepkg.SearchReverse}
	case 'n':
		if view.SearchMode == statepkg.SearchReverse {
			return statepkg.PrevMatchInput{}
		}
		return statepkg.NextMatchInput{}
	case 'N':
		if view.SearchMode == statepkg.SearchReverse {
			return statepkg.NextMatchInput{}
		}
		return statepkg.PrevMatchInput{}
	}
	return nil
}

// bottomMark is past the end on purpose; rendering clamps it.
func bottomMark(view statepkg.View) int {
	return max(view.NumLines, 0)
}

func saturatingAdd(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return max(0, a+b)
}
