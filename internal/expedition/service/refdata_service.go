package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
)

// RefData is one immutable generation of the lookup tables. A new
// generation replaces the old one atomically; readers always see a complete
// set.
type RefData struct {
	Lojas      []entity.Loja      `json:"lojas"`
	Docas      []entity.Doca      `json:"docas"`
	Lideres    []entity.Lider     `json:"lideres"`
	Veiculos   []entity.Veiculo   `json:"veiculos"`
	Motoristas []entity.Motorista `json:"motoristas"`

	lojaByID      map[string]entity.Loja
	docaByID      map[string]entity.Doca
	liderByID     map[string]entity.Lider
	veiculoByID   map[string]entity.Veiculo
	motoristaByID map[string]entity.Motorista
}

func (r *RefData) Loja(id string) (entity.Loja, bool) {
	l, ok := r.lojaByID[id]
	return l, ok
}

func (r *RefData) Doca(id string) (entity.Doca, bool) {
	d, ok := r.docaByID[id]
	return d, ok
}

func (r *RefData) Lider(id string) (entity.Lider, bool) {
	l, ok := r.liderByID[id]
	return l, ok
}

func (r *RefData) Veiculo(id string) (entity.Veiculo, bool) {
	v, ok := r.veiculoByID[id]
	return v, ok
}

func (r *RefData) Motorista(id string) (entity.Motorista, bool) {
	m, ok := r.motoristaByID[id]
	return m, ok
}

// RefDataService caches the five reference collections for the session.
// Refreshed wholesale on filial change or explicit reload, never
// incrementally.
type RefDataService struct {
	gw     *gateway.Client
	logger *zap.Logger

	mu    sync.RWMutex
	cache *RefData
}

func NewRefDataService(gw *gateway.Client, logger *zap.Logger) *RefDataService {
	return &RefDataService{gw: gw, logger: logger}
}

// Refresh fetches the five collections concurrently and swaps the cache in
// one step. If any single fetch fails the whole refresh fails and the prior
// cache is left untouched.
//
// Lojas, docas and lideres are filial-scoped and active-only; veiculos and
// motoristas are neither.
func (s *RefDataService) Refresh(ctx context.Context) error {
	next := &RefData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.gw.Get(gctx, "lojas?select=*&ativo=eq.true&order=codigo,nome", true, &next.Lojas)
	})
	g.Go(func() error {
		return s.gw.Get(gctx, "docas?ativo=eq.true&order=nome", true, &next.Docas)
	})
	g.Go(func() error {
		return s.gw.Get(gctx, "lideres?ativo=eq.true&order=nome", true, &next.Lideres)
	})
	g.Go(func() error {
		return s.gw.Get(gctx, "veiculos?order=placa", false, &next.Veiculos)
	})
	g.Go(func() error {
		return s.gw.Get(gctx, "motoristas?order=nome", false, &next.Motoristas)
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Reference data refresh failed", zap.Error(err))
		return err
	}

	next.lojaByID = make(map[string]entity.Loja, len(next.Lojas))
	for _, l := range next.Lojas {
		next.lojaByID[l.ID] = l
	}
	next.docaByID = make(map[string]entity.Doca, len(next.Docas))
	for _, d := range next.Docas {
		next.docaByID[d.ID] = d
	}
	next.liderByID = make(map[string]entity.Lider, len(next.Lideres))
	for _, l := range next.Lideres {
		next.liderByID[l.ID] = l
	}
	next.veiculoByID = make(map[string]entity.Veiculo, len(next.Veiculos))
	for _, v := range next.Veiculos {
		next.veiculoByID[v.ID] = v
	}
	next.motoristaByID = make(map[string]entity.Motorista, len(next.Motoristas))
	for _, m := range next.Motoristas {
		next.motoristaByID[m.ID] = m
	}

	s.mu.Lock()
	s.cache = next
	s.mu.Unlock()

	s.logger.Info("Reference data refreshed",
		zap.Int("lojas", len(next.Lojas)),
		zap.Int("docas", len(next.Docas)),
		zap.Int("lideres", len(next.Lideres)),
		zap.Int("veiculos", len(next.Veiculos)),
		zap.Int("motoristas", len(next.Motoristas)),
	)
	return nil
}

// Snapshot returns the current generation, or nil before the first
// successful refresh.
func (s *RefDataService) Snapshot() *RefData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// Clear drops the cache, used on logout.
func (s *RefDataService) Clear() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}
