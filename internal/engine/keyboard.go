package engine

import (
	"sync"

	"github.com/google/uuid"
)

// KeyEvent is one raw key press forwarded by the client. FromEditable is
// true when the event originated inside a text input or textarea; such
// events are never intercepted so typing stays untouched.
type KeyEvent struct {
	Key          string `json:"key"`
	FromEditable bool   `json:"from_editable"`
}

// Dispatcher is the single global key-event listener. A session is bound
// while its stream is mounted and must be unbound on teardown; a binding
// that outlives its stream is a defect.
type Dispatcher struct {
	mu       sync.RWMutex
	bindings map[uuid.UUID]*Machine
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{bindings: make(map[uuid.UUID]*Machine)}
}

// Bind registers a machine for key dispatch.
func (d *Dispatcher) Bind(m *Machine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings[m.ID()] = m
}

// Unbind removes a machine's binding.
func (d *Dispatcher) Unbind(sessionID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings, sessionID)
}

// Bound reports whether the session currently receives key events.
func (d *Dispatcher) Bound(sessionID uuid.UUID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.bindings[sessionID]
	return ok
}

// Dispatch translates a physical key into a session command and applies
// it. Unrecognized keys, editable-origin events, and the documented
// benign cases are silent no-ops; real rejections are returned.
func (d *Dispatcher) Dispatch(sessionID uuid.UUID, ev KeyEvent) error {
	d.mu.RLock()
	m, ok := d.bindings[sessionID]
	d.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if ev.FromEditable {
		return nil
	}

	switch ev.Key {
	case "Enter":
		_, err := m.Reveal()
		return err
	case "ArrowLeft":
		return m.Navigate(-1)
	case "ArrowRight":
		return m.Navigate(+1)
	case "p", "P":
		return m.TogglePause()
	case "Escape":
		m.RequestExit()
		return nil
	case "Backspace":
		// Clearing a revealed answer is a documented no-op.
		if err := m.Clear(); err != nil && err != ErrAnswerLocked {
			return err
		}
		return nil
	}

	if pos, ok := letterOrdinal(ev.Key); ok {
		return d.toggleOption(m, pos)
	}
	return nil
}

// toggleOption maps an alphabet position to the option at that ordinal in
// the current question's rendered order and toggles its selection. The
// dispatcher owns toggle semantics; the scorer's Select is a full replace.
func (d *Dispatcher) toggleOption(m *Machine, pos int) error {
	q, selected := m.CurrentQuestion()
	opt, ok := q.OptionAt(pos)
	if !ok {
		return nil
	}

	has := false
	for _, id := range selected {
		if id == opt.ID {
			has = true
			break
		}
	}

	var next []string
	switch {
	case has && q.MultiSelect:
		next = make([]string, 0, len(selected)-1)
		for _, id := range selected {
			if id != opt.ID {
				next = append(next, id)
			}
		}
	case has:
		// Single-select: pressing the selected letter deselects.
		next = []string{}
	case q.MultiSelect:
		next = append(selected, opt.ID)
	default:
		next = []string{opt.ID}
	}

	err := m.Select(next)
	if err == ErrAnswerLocked {
		// Selection changes after reveal are benign no-ops.
		return nil
	}
	return err
}

// letterOrdinal maps "a".."z" / "A".."Z" to 0..25.
func letterOrdinal(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), true
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	}
	return 0, false
}
