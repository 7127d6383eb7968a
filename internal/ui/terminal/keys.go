package terminal

import (
	"bufio"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// keyDecoder turns raw terminal bytes into tcell key events.
type keyDecoder struct {
	reader *bufio.Reader
}

func (d keyDecoder) readKeyEvent() (tcell.Event, error) {
	b, err := d.reader.ReadByte()
	if err != nil {
		return nil, err
	}

	switch {
	case b == 0x1b:
		return d.parseEscapeSequence(), nil
	case b == '\r' || b == '\n':
		return key(tcell.KeyEnter), nil
	case b == '\t':
		return key(tcell.KeyTab), nil
	case b == 0x7f:
		return key(tcell.KeyBackspace2), nil
	case b < 0x20:
		// Ctrl+A..Ctrl+Z and friends map onto tcell's control key codes.
		return tcell.NewEventKey(tcell.Key(b), rune(b), tcell.ModCtrl), nil
	case b < utf8.RuneSelf:
		return tcell.NewEventKey(tcell.KeyRune, rune(b), tcell.ModNone), nil
	}

	buf := []byte{b}
	for !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		next, err := d.reader.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, next)
	}
	r, _ := utf8.DecodeRune(buf)
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone), nil
}

func (d keyDecoder) parseEscapeSequence() tcell.Event {
	if d.reader.Buffered() == 0 {
		return key(tcell.KeyEscape)
	}
	next, err := d.reader.ReadByte()
	if err != nil {
		return key(tcell.KeyEscape)
	}

	switch next {
	case '[':
		return d.parseCSI()
	case 'O':
		final, err := d.reader.ReadByte()
		if err != nil {
			return key(tcell.KeyEscape)
		}
		switch final {
		case 'A':
			return key(tcell.KeyUp)
		case 'B':
			return key(tcell.KeyDown)
		case 'H':
			return key(tcell.KeyHome)
		case 'F':
			return key(tcell.KeyEnd)
		}
		return nil
	default:
		return tcell.NewEventKey(tcell.KeyRune, rune(next), tcell.ModAlt)
	}
}

func (d keyDecoder) parseCSI() tcell.Event {
	seq := []byte{}
	for {
		b, err := d.reader.ReadByte()
		if err != nil {
			return key(tcell.KeyEscape)
		}
		seq = append(seq, b)
		if (b >= 'A' && b <= 'Z') || b == '~' || len(seq) > 5 {
			break
		}
	}

	switch seq[len(seq)-1] {
	case 'A':
		return key(tcell.KeyUp)
	case 'B':
		return key(tcell.KeyDown)
	case 'C':
		return key(tcell.KeyRight)
	case 'D':
		return key(tcell.KeyLeft)
	case 'H':
		return key(tcell.KeyHome)
	case 'F':
		return key(tcell.KeyEnd)
	case '~':
		switch string(seq[:len(seq)-1]) {
		case "1", "7":
			return key(tcell.KeyHome)
		case "3":
			return key(tcell.KeyDelete)
		case "4", "8":
			return key(tcell.KeyEnd)
		case "5":
			return key(tcell.KeyPgUp)
		case "6":
			return key(tcell.KeyPgDn)
		}
	}
	return nil
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}
