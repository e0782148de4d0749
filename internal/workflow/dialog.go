// Package workflow описывает жизненный цикл модальных диалогов рабочих процессов.
package workflow

import (
	"errors"
	"sync"
)

// Phase состояние диалога.
type Phase string

const (
	PhaseClosed     Phase = "closed"
	PhaseOpen       Phase = "open"
	PhaseSubmitting Phase = "submitting"
	PhaseError      Phase = "error"
)

var (
	// ErrNotOpen возвращается при действии над закрытым диалогом.
	ErrNotOpen = errors.New("workflow: диалог не открыт")
	// ErrInFlight возвращается, пока предыдущая отправка не завершилась.
	ErrInFlight = errors.New("workflow: отправка уже выполняется")
	// ErrStale возвращается, если диалог закрыли или открыли заново.
	ErrStale = errors.New("workflow: диалог уже открыт заново")
)

// Snapshot неизменяемая копия состояния диалога для отображения.
type Snapshot[D any] struct {
	Phase  Phase  `json:"phase"`
	Draft  *D     `json:"draft,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Dialog хранит состояние Closed | Open(draft) | Submitting(draft) | Error(draft, reason).
// Черновик существует только пока диалог не закрыт.
type Dialog[D any] struct {
	mu     sync.Mutex
	phase  Phase
	draft  D
	reason string
	epoch  uint64
}

// NewDialog создаёт закрытый диалог.
func NewDialog[D any]() *Dialog[D] {
	return &Dialog[D]{phase: PhaseClosed}
}

// Open открывает диалог с новым черновиком, сбрасывая всё, что осталось от прошлой сессии.
func (d *Dialog[D]) Open(draft D) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == PhaseSubmitting {
		return ErrInFlight
	}
	d.phase = PhaseOpen
	d.draft = draft
	d.reason = ""
	d.epoch++
	return nil
}

// Update изменяет черновик. Во время отправки черновик заморожен.
func (d *Dialog[D]) Update(fn func(*D) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.phase {
	case PhaseClosed:
		return ErrNotOpen
	case PhaseSubmitting:
		return ErrInFlight
	}
	return fn(&d.draft)
}

// Session возвращает метку текущей сессии диалога и копию черновика.
func (d *Dialog[D]) Session() (D, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase == PhaseClosed {
		var zero D
		return zero, 0, ErrNotOpen
	}
	return d.draft, d.epoch, nil
}

// UpdateSession изменяет черновик, только если сессия epoch всё ещё текущая.
func (d *Dialog[D]) UpdateSession(epoch uint64, fn func(*D) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.phase == PhaseClosed:
		return ErrNotOpen
	case d.epoch != epoch:
		return ErrStale
	case d.phase == PhaseSubmitting:
		return ErrInFlight
	}
	return fn(&d.draft)
}

// Begin переводит диалог в Submitting и возвращает копию черновика и метку сессии.
func (d *Dialog[D]) Begin() (D, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero D
	switch d.phase {
	case PhaseClosed:
		return zero, 0, ErrNotOpen
	case PhaseSubmitting:
		return zero, 0, ErrInFlight
	}
	d.phase = PhaseSubmitting
	d.reason = ""
	return d.draft, d.epoch, nil
}

// Fail возвращает диалог в редактируемое состояние с причиной ошибки.
// Ответ, пришедший после закрытия или переоткрытия диалога, игнорируется.
func (d *Dialog[D]) Fail(epoch uint64, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.epoch != epoch || d.phase != PhaseSubmitting {
		return
	}
	d.phase = PhaseError
	d.reason = reason
}

// Finish закрывает диалог после успешной отправки.
func (d *Dialog[D]) Finish(epoch uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.epoch != epoch {
		return
	}
	d.closeLocked()
}

// Close закрывает диалог и отбрасывает черновик.
func (d *Dialog[D]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
}

func (d *Dialog[D]) closeLocked() {
	var zero D
	d.phase = PhaseClosed
	d.draft = zero
	d.reason = ""
	d.epoch++
}

// Phase возвращает текущее состояние.
func (d *Dialog[D]) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Snapshot возвращает копию состояния. Черновик копируется поверхностно.
func (d *Dialog[D]) Snapshot() Snapshot[D] {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot[D]{Phase: d.phase, Reason: d.reason}
	if d.phase != PhaseClosed {
		draft := d.draft
		s.Draft = &draft
	}
	return s
}
