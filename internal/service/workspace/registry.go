// Package workspace хранит контроллеры рабочих процессов каждого пользователя.
package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/uniform-portal/internal/logger"
	"github.com/ignatzorin/uniform-portal/internal/notify"
	"github.com/ignatzorin/uniform-portal/internal/paymentctx"
	"github.com/ignatzorin/uniform-portal/internal/service/evidence"
	"github.com/ignatzorin/uniform-portal/internal/service/quotation"
	"github.com/ignatzorin/uniform-portal/internal/service/reportreview"
	"github.com/ignatzorin/uniform-portal/internal/upload"
)

// Backend объединяет вызовы бэкенда всех рабочих процессов.
type Backend interface {
	reportreview.Backend
	evidence.Backend
	quotation.Backend
}

// Deps общие зависимости контроллеров.
type Deps struct {
	API        Backend
	Uploader   upload.Provider
	Payments   paymentctx.Store
	Notifier   notify.Notifier
	Limits     evidence.Limits
	ReturnPath string
}

type space struct {
	lastSeen   time.Time
	inFlight   int
	reports    *reportreview.Controller
	evidence   *evidence.Controller
	quotations *quotation.Controller
}

// Registry создаёт контроллеры лениво и удаляет их после простоя.
type Registry struct {
	deps    Deps
	idleTTL time.Duration
	now     func() time.Time

	mu     sync.Mutex
	spaces map[int64]*space
}

// NewRegistry создаёт реестр. idleTTL <= 0 отключает вытеснение.
func NewRegistry(deps Deps, idleTTL time.Duration) *Registry {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	return &Registry{
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		spaces:  make(map[int64]*space),
	}
}

// touch возвращает пространство пользователя, отмечая обращение. Вызывается под mu.
func (r *Registry) touch(userID int64) *space {
	s, ok := r.spaces[userID]
	if !ok {
		s = &space{}
		r.spaces[userID] = s
	}
	s.lastSeen = r.now()
	return s
}

// Reports контроллер рассмотрения жалоб администратора.
func (r *Registry) Reports(userID int64) *reportreview.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.touch(userID)
	if s.reports == nil {
		s.reports = reportreview.NewController(userID, r.deps.API, r.deps.Notifier)
	}
	return s.reports
}

// Evidence контроллер ответов дизайнера.
func (r *Registry) Evidence(userID int64) *evidence.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.touch(userID)
	if s.evidence == nil {
		s.evidence = evidence.NewController(userID, r.deps.API, r.deps.Uploader, r.deps.Notifier, r.deps.Limits)
	}
	return s.evidence
}

// Quotations контроллер выбора предложений школы.
func (r *Registry) Quotations(userID int64) *quotation.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.touch(userID)
	if s.quotations == nil {
		s.quotations = quotation.NewController(userID, r.deps.API, r.deps.Payments, r.deps.Notifier, r.deps.ReturnPath)
	}
	return s.quotations
}

// Hold защищает пространство пользователя от вытеснения на время долгого вызова.
// Возвращённая функция снимает защиту и отмечает обращение.
func (r *Registry) Hold(userID int64) func() {
	r.mu.Lock()
	s := r.touch(userID)
	s.inFlight++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			s.inFlight--
			s.lastSeen = r.now()
		})
	}
}

// Len число активных пользователей.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

// Evict удаляет пространства, к которым не обращались дольше idleTTL.
// Пространства с удерживаемыми вызовами не удаляются.
func (r *Registry) Evict() int {
	if r.idleTTL <= 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	n := 0
	for id, s := range r.spaces {
		if s.inFlight == 0 && s.lastSeen.Before(cutoff) {
			delete(r.spaces, id)
			n++
		}
	}
	return n
}

// Run периодически вытесняет простаивающие пространства до отмены ctx.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				logger.L().WithField("evicted", n).Debug("workspace: простаивающие пространства удалены")
			}
		}
	}
}
