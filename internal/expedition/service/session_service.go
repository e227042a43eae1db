package service

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/sessionstore"
)

// Stage is the session state machine position.
type Stage string

const (
	StageAnonymous     Stage = "anonymous"
	StageIPBound       Stage = "ip_bound"
	StageAuthenticated Stage = "authenticated" // identity valid, no filial yet
	StageReady         Stage = "ready"         // filial selected
)

var ipv4Pattern = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// SessionService owns the session/tenant context: the bound IP, the
// validated credential, the selected filial and the allowed filial set.
// It is the TenantSource the gateway consults on every call.
type SessionService struct {
	gw     *gateway.Client
	store  sessionstore.Store
	logger *zap.Logger

	mu         sync.RWMutex
	ip         string
	credencial *entity.Credencial
	filial     *entity.Filial
	allowed    []entity.Filial
}

func NewSessionService(store sessionstore.Store, logger *zap.Logger) *SessionService {
	return &SessionService{store: store, logger: logger}
}

// SetGateway breaks the construction cycle: the gateway needs the session
// as its TenantSource, and the session needs the gateway for lookups.
func (s *SessionService) SetGateway(gw *gateway.Client) {
	s.gw = gw
}

// CurrentFilial implements gateway.TenantSource.
func (s *SessionService) CurrentFilial() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filial == nil {
		return ""
	}
	return s.filial.Nome
}

func (s *SessionService) Stage() Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stageLocked()
}

func (s *SessionService) stageLocked() Stage {
	switch {
	case s.filial != nil:
		return StageReady
	case s.credencial != nil:
		return StageAuthenticated
	case s.ip != "":
		return StageIPBound
	default:
		return StageAnonymous
	}
}

func (s *SessionService) Credencial() *entity.Credencial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credencial
}

func (s *SessionService) Filial() *entity.Filial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filial
}

func (s *SessionService) AllowedFiliais() []entity.Filial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Filial, len(s.allowed))
	copy(out, s.allowed)
	return out
}

func (s *SessionService) BoundIP() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ip
}

// Restore rebuilds the session from persisted state. The persisted
// credential is re-validated against the backend before being trusted; any
// failure degrades silently to the ip-bound or anonymous stage.
func (s *SessionService) Restore(ctx context.Context) error {
	savedIP, _ := s.store.Get(ctx, sessionstore.KeyIP)
	savedCred, _ := s.store.Get(ctx, sessionstore.KeyCredencial)
	savedFilial, _ := s.store.Get(ctx, sessionstore.KeyFilial)

	s.mu.Lock()
	s.ip = savedIP
	s.mu.Unlock()

	if savedIP == "" || savedCred == "" {
		return nil
	}

	cred, allowed, err := s.validate(ctx, savedCred, savedIP)
	if err != nil {
		s.logger.Warn("Session restore failed, requiring fresh login", zap.Error(err))
		s.clearAuth(ctx)
		return nil
	}

	s.mu.Lock()
	s.credencial = cred
	s.allowed = allowed
	s.mu.Unlock()

	if savedFilial != "" {
		for i := range allowed {
			if allowed[i].Nome == savedFilial {
				return s.SelectFilial(ctx, savedFilial)
			}
		}
	}
	if len(allowed) == 1 {
		return s.SelectFilial(ctx, allowed[0].Nome)
	}
	return nil
}

// Login validates the credential code against the bound IP. A fresh IP is
// required (and format-checked) when none is bound yet.
func (s *SessionService) Login(ctx context.Context, code, ip string) error {
	if code == "" {
		return validationErr("Digite uma credencial válida!")
	}

	s.mu.RLock()
	boundIP := s.ip
	s.mu.RUnlock()

	ipToValidate := boundIP
	if ipToValidate == "" {
		if !ipv4Pattern.MatchString(ip) {
			return validationErr("Formato de IP inválido! Use o formato: 192.168.1.100")
		}
		ipToValidate = ip
	}

	cred, allowed, err := s.validate(ctx, code, ipToValidate)
	if err != nil {
		return err
	}

	if err := s.store.Set(ctx, sessionstore.KeyIP, ipToValidate); err != nil {
		return fmt.Errorf("failed to persist bound IP: %w", err)
	}
	if err := s.store.Set(ctx, sessionstore.KeyCredencial, code); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	s.mu.Lock()
	s.ip = ipToValidate
	s.credencial = cred
	s.allowed = allowed
	s.filial = nil
	s.mu.Unlock()

	s.logger.Info("Credential authenticated",
		zap.String("credencial", code),
		zap.Int("filiais", len(allowed)),
	)

	if len(allowed) == 1 {
		return s.SelectFilial(ctx, allowed[0].Nome)
	}
	return nil
}

// validate performs the exact-match credential lookup and resolves the
// allowed filial set: active filiais ordered by name, intersected with the
// credential's allow-list. Both reads are tenant-exempt.
func (s *SessionService) validate(ctx context.Context, code, ip string) (*entity.Credencial, []entity.Filial, error) {
	var creds []entity.Credencial
	endpoint := fmt.Sprintf("credenciais?codigo_credencial=eq.%s&ip_address=eq.%s&ativo=eq.true",
		url.QueryEscape(code), url.QueryEscape(ip))
	if err := s.gw.Get(ctx, endpoint, false, &creds); err != nil {
		return nil, nil, err
	}
	if len(creds) == 0 {
		return nil, nil, authErr("Credencial ou IP inválido, ou acesso inativo")
	}
	cred := &creds[0]

	if len(cred.EmpresasAcesso) == 0 {
		return nil, nil, authErr("Credencial sem acesso a filiais")
	}

	var filiais []entity.Filial
	if err := s.gw.Get(ctx, "filiais?select=nome,descricao,ativo&ativo=eq.true&order=nome", false, &filiais); err != nil {
		return nil, nil, err
	}

	allowSet := make(map[string]bool, len(cred.EmpresasAcesso))
	for _, nome := range cred.EmpresasAcesso {
		allowSet[nome] = true
	}
	allowed := make([]entity.Filial, 0, len(filiais))
	for _, f := range filiais {
		if allowSet[f.Nome] {
			allowed = append(allowed, f)
		}
	}
	if len(allowed) == 0 {
		return nil, nil, authErr("Nenhuma filial disponível para esta credencial")
	}

	return cred, allowed, nil
}

// SelectFilial picks a filial from the allowed set and persists the choice.
func (s *SessionService) SelectFilial(ctx context.Context, nome string) error {
	s.mu.Lock()
	if s.credencial == nil {
		s.mu.Unlock()
		return authErr("Sessão não autenticada")
	}
	var chosen *entity.Filial
	for i := range s.allowed {
		if s.allowed[i].Nome == nome {
			chosen = &s.allowed[i]
			break
		}
	}
	if chosen == nil {
		s.mu.Unlock()
		return authErr("Filial não permitida para esta credencial")
	}
	s.filial = chosen
	s.mu.Unlock()

	if err := s.store.Set(ctx, sessionstore.KeyFilial, nome); err != nil {
		return fmt.Errorf("failed to persist filial: %w", err)
	}

	s.logger.Info("Filial selected", zap.String("filial", nome))
	return nil
}

// SwitchFilial returns to filial selection without discarding the
// authenticated identity. A no-op when only one filial is allowed.
func (s *SessionService) SwitchFilial() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.allowed) <= 1 {
		return false
	}
	s.filial = nil
	return true
}

// Logout clears the authenticated identity but keeps the bound IP, so the
// next login only asks for the credential code.
func (s *SessionService) Logout(ctx context.Context) {
	s.clearAuth(ctx)
}

// LogoutFull clears everything, including the bound IP.
func (s *SessionService) LogoutFull(ctx context.Context) {
	s.clearAuth(ctx)
	s.store.Delete(ctx, sessionstore.KeyIP)
	s.mu.Lock()
	s.ip = ""
	s.mu.Unlock()
}

// ResetIP drops the bound IP and the authenticated identity; the user must
// log in again with a fresh IP.
func (s *SessionService) ResetIP(ctx context.Context) {
	s.LogoutFull(ctx)
}

func (s *SessionService) clearAuth(ctx context.Context) {
	s.store.Delete(ctx, sessionstore.KeyCredencial)
	s.store.Delete(ctx, sessionstore.KeyFilial)
	s.mu.Lock()
	s.credencial = nil
	s.filial = nil
	s.allowed = nil
	s.mu.Unlock()
}
