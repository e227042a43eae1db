package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/sse"
)

// View names as the UI knows them.
const (
	ViewLancamento     = "lancamento"
	ViewAcompanhamento = "acompanhamento"
)

// RenderState is the complete render-ready structure the presentation
// boundary receives after every meaningful state change.
type RenderState struct {
	Stage          Stage                   `json:"stage"`
	IPBound        bool                    `json:"ip_bound"`
	Filial         *entity.Filial          `json:"filial,omitempty"`
	AllowedFiliais []entity.Filial         `json:"allowed_filiais,omitempty"`
	RefData        *RefData                `json:"refdata,omitempty"`
	ActiveView     string                  `json:"active_view"`
	Date           string                  `json:"date"`
	Filter         FilterState             `json:"filter"`
	StatusOptions  []string                `json:"status_options"`
	Expeditions    []entity.ExpeditionView `json:"expeditions"`
	Stats          Stats                   `json:"stats"`
	StatusLabels   map[string]string       `json:"status_labels"`
}

// AppService is the intent dispatcher: it owns the mutable view state
// (loaded records, filters, active view), serializes every update, and
// notifies the SSE hub after each change. Overlapping reloads resolve
// last-write-wins; the mutex only guarantees a render never observes a
// half-applied state.
type AppService struct {
	session     *SessionService
	refdata     *RefDataService
	viewmodel   *ViewModelService
	expeditions *ExpeditionService
	hub         *sse.Hub
	logger      *zap.Logger

	reloadInterval time.Duration

	mu         sync.RWMutex
	all        []entity.ExpeditionView
	filter     FilterState
	date       string
	activeView string
	pollCancel context.CancelFunc
}

func NewAppService(
	session *SessionService,
	refdata *RefDataService,
	viewmodel *ViewModelService,
	expeditions *ExpeditionService,
	hub *sse.Hub,
	reloadInterval time.Duration,
	logger *zap.Logger,
) *AppService {
	return &AppService{
		session:        session,
		refdata:        refdata,
		viewmodel:      viewmodel,
		expeditions:    expeditions,
		hub:            hub,
		reloadInterval: reloadInterval,
		logger:         logger,
		activeView:     ViewLancamento,
	}
}

// Snapshot assembles the current render state.
func (a *AppService) Snapshot() RenderState {
	a.mu.RLock()
	all := a.all
	filter := a.filter
	date := a.date
	activeView := a.activeView
	a.mu.RUnlock()

	filtered, stats := ApplyFilters(all, filter)

	state := RenderState{
		Stage:         a.session.Stage(),
		IPBound:       a.session.BoundIP() != "",
		Filial:        a.session.Filial(),
		ActiveView:    activeView,
		Date:          date,
		Filter:        filter,
		StatusOptions: StatusOptions(all),
		Expeditions:   filtered,
		Stats:         stats,
		StatusLabels:  labelsFor(all),
	}
	if state.Stage == StageAuthenticated || state.Stage == StageReady {
		state.AllowedFiliais = a.session.AllowedFiliais()
	}
	if state.Stage == StageReady {
		state.RefData = a.refdata.Snapshot()
	}
	return state
}

func labelsFor(records []entity.ExpeditionView) map[string]string {
	labels := make(map[string]string)
	for _, rec := range records {
		labels[rec.Status] = entity.StatusLabel(rec.Status)
	}
	return labels
}

// CredencialCode returns the validated credential code, or empty when no
// identity is authenticated.
func (a *AppService) CredencialCode() string {
	if cred := a.session.Credencial(); cred != nil {
		return cred.CodigoCredencial
	}
	return ""
}

// RestoreSession replays persisted state on startup. Failures degrade
// silently to a fresh login.
func (a *AppService) RestoreSession(ctx context.Context) {
	if err := a.session.Restore(ctx); err != nil {
		a.logger.Warn("Session restore error", zap.Error(err))
	}
	if a.session.Stage() == StageReady {
		if err := a.loadAppData(ctx); err != nil {
			a.logger.Warn("Data load after restore failed", zap.Error(err))
		}
	}
	a.notify("restore")
}

// Login handles the submit-login intent.
func (a *AppService) Login(ctx context.Context, code, ip string) error {
	if err := a.session.Login(ctx, code, ip); err != nil {
		return err
	}
	if a.session.Stage() == StageReady {
		if err := a.loadAppData(ctx); err != nil {
			a.logger.Warn("Data load after login failed", zap.Error(err))
		}
	}
	a.notify("login")
	return nil
}

// SelectFilial handles the select-tenant intent and refreshes all data for
// the new filial.
func (a *AppService) SelectFilial(ctx context.Context, nome string) error {
	if err := a.session.SelectFilial(ctx, nome); err != nil {
		return err
	}
	if err := a.loadAppData(ctx); err != nil {
		a.logger.Warn("Data load after filial selection failed", zap.Error(err))
	}
	a.notify("filial_selected")
	return nil
}

// SwitchFilial returns to filial selection. A no-op when the credential
// only allows one filial.
func (a *AppService) SwitchFilial() {
	if !a.session.SwitchFilial() {
		return
	}
	a.stopPolling()
	a.mu.Lock()
	a.all = nil
	a.mu.Unlock()
	a.notify("filial_switch")
}

// Logout clears the identity but keeps the bound IP.
func (a *AppService) Logout(ctx context.Context) {
	a.stopPolling()
	a.session.Logout(ctx)
	a.resetViewState()
	a.notify("logout")
}

// LogoutFull clears all persisted state, including the bound IP.
func (a *AppService) LogoutFull(ctx context.Context) {
	a.stopPolling()
	a.session.LogoutFull(ctx)
	a.resetViewState()
	a.notify("logout_full")
}

// ResetIP drops the bound IP; the user logs in again with a fresh one.
func (a *AppService) ResetIP(ctx context.Context) {
	a.stopPolling()
	a.session.ResetIP(ctx)
	a.resetViewState()
	a.notify("ip_reset")
}

func (a *AppService) resetViewState() {
	a.refdata.Clear()
	a.mu.Lock()
	a.all = nil
	a.filter = FilterState{}
	a.date = ""
	a.activeView = ViewLancamento
	a.mu.Unlock()
}

// SetFilter handles the change-filter intent. A date change requires a
// reload; status/search changes only re-derive.
func (a *AppService) SetFilter(ctx context.Context, filter FilterState, date string) error {
	a.mu.Lock()
	dateChanged := date != a.date
	a.filter = filter
	a.date = date
	a.mu.Unlock()

	if dateChanged {
		if err := a.Reload(ctx); err != nil {
			return err
		}
	}
	a.notify("filter")
	return nil
}

// CreateExpedition handles the submit-new-dispatch intent. The list is
// reloaded afterwards when it is the active view.
func (a *AppService) CreateExpedition(ctx context.Context, req CreateExpeditionRequest) (string, error) {
	label, err := a.expeditions.Create(ctx, req)
	if err != nil {
		return "", err
	}
	a.mu.RLock()
	active := a.activeView
	a.mu.RUnlock()
	if active == ViewAcompanhamento {
		if err := a.Reload(ctx); err != nil {
			a.logger.Warn("Reload after create failed", zap.Error(err))
		}
	}
	a.notify("expedition_created")
	return label, nil
}

// Reload rebuilds the view model for the current date window. The newest
// completed reload wins.
func (a *AppService) Reload(ctx context.Context) error {
	a.mu.RLock()
	date := a.date
	a.mu.RUnlock()

	views, err := a.viewmodel.Load(ctx, date)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.all = views
	a.mu.Unlock()
	a.notify("reload")
	return nil
}

// SetActiveView handles the change-active-view intent and drives the
// polling lifecycle: the periodic reload runs only while the list view is
// active and a filial is selected.
func (a *AppService) SetActiveView(ctx context.Context, view string) error {
	if view != ViewLancamento && view != ViewAcompanhamento {
		return validationErr("View inválida")
	}

	a.mu.Lock()
	a.activeView = view
	a.mu.Unlock()

	if view == ViewAcompanhamento && a.session.Stage() == StageReady {
		if err := a.Reload(ctx); err != nil {
			a.logger.Warn("Reload on view change failed", zap.Error(err))
		}
		a.startPolling()
	} else {
		a.stopPolling()
	}
	a.notify("view")
	return nil
}

// loadAppData performs the full post-selection load: reference data first,
// then the expedition list for today.
func (a *AppService) loadAppData(ctx context.Context) error {
	if err := a.refdata.Refresh(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.date = time.Now().Format("2006-01-02")
	a.mu.Unlock()
	return a.Reload(ctx)
}

// startPolling launches the cancellable periodic reload task. Replaces any
// task already running.
func (a *AppService) startPolling() {
	a.mu.Lock()
	if a.pollCancel != nil {
		a.pollCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.pollCancel = cancel
	a.mu.Unlock()

	go func() {
		ticker := time.NewTicker(a.reloadInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if a.session.Stage() != StageReady {
					continue
				}
				if err := a.Reload(ctx); err != nil {
					a.logger.Warn("Periodic reload failed", zap.Error(err))
				}
			}
		}
	}()
	a.logger.Info("Periodic reload started", zap.Duration("interval", a.reloadInterval))
}

func (a *AppService) stopPolling() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pollCancel != nil {
		a.pollCancel()
		a.pollCancel = nil
		a.logger.Info("Periodic reload stopped")
	}
}

func (a *AppService) notify(reason string) {
	if a.hub != nil {
		a.hub.PublishStateChanged(reason)
	}
}
