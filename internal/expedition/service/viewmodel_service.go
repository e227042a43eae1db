package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
)

// Delivery stops without an explicit order sort after every ordered one.
const ordemEntregaUnset = 999

// ViewModelService joins expedition headers with their items and the
// reference cache into the display-ready record set. Every load is a full
// rebuild; the produced set wholly replaces the previous one.
type ViewModelService struct {
	gw      *gateway.Client
	refdata *RefDataService
	logger  *zap.Logger

	now func() time.Time
}

func NewViewModelService(gw *gateway.Client, refdata *RefDataService, logger *zap.Logger) *ViewModelService {
	return &ViewModelService{gw: gw, refdata: refdata, logger: logger, now: time.Now}
}

// Load fetches the headers of the given calendar day (local, inclusive
// start-of-day to end-of-day; today when empty) plus all items visible to
// the current filial, and builds the view records.
func (s *ViewModelService) Load(ctx context.Context, date string) ([]entity.ExpeditionView, error) {
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	var (
		expeditions []entity.Expedition
		items       []entity.ExpeditionItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		day := url.QueryEscape(date)
		endpoint := fmt.Sprintf(
			"expeditions?data_hora=gte.%sT00:00:00&data_hora=lte.%sT23:59:59&order=data_hora.desc",
			day, day,
		)
		return s.gw.Get(gctx, endpoint, true, &expeditions)
	})
	g.Go(func() error {
		return s.gw.Get(gctx, gateway.CollectionExpeditionItems, true, &items)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Group items by header reference, preserving fetched order. No sort
	// order is assumed on either collection.
	itemsByExpedition := make(map[string][]entity.ExpeditionItem)
	for _, item := range items {
		itemsByExpedition[item.ExpeditionID] = append(itemsByExpedition[item.ExpeditionID], item)
	}

	ref := s.refdata.Snapshot()
	views := make([]entity.ExpeditionView, 0, len(expeditions))
	for _, exp := range expeditions {
		views = append(views, s.buildView(exp, itemsByExpedition[exp.ID], ref))
	}

	s.logger.Debug("View model rebuilt",
		zap.String("date", date),
		zap.Int("expeditions", len(views)),
		zap.Int("items", len(items)),
	)
	return views, nil
}

func (s *ViewModelService) buildView(exp entity.Expedition, items []entity.ExpeditionItem, ref *RefData) entity.ExpeditionView {
	view := entity.ExpeditionView{
		Expedition: exp,
		Items:      items,
		LiderNome:  entity.NotAvailable,
		DocaNome:   entity.NotAvailable,
		Cargas:     exp.NumerosCarga,
	}
	if view.Cargas == nil {
		view.Cargas = entity.CargoNumbers{}
	}

	switch len(items) {
	case 0:
		view.Tipo = entity.ShipmentVazia
		view.LojaLabel = "Sem itens"
	case 1:
		view.Tipo = entity.ShipmentIndividual
		view.TotalLojas = 1
		view.LojaLabel = entity.NotAvailable
		if ref != nil {
			if loja, ok := ref.Loja(items[0].LojaID); ok {
				view.LojaLabel = loja.Codigo + " - " + loja.Nome
			}
		}
	default:
		view.Tipo = entity.ShipmentAgrupada
		view.TotalLojas = len(items)
		codigos := ""
		for i, item := range items {
			codigo := entity.NotAvailable
			if ref != nil {
				if loja, ok := ref.Loja(item.LojaID); ok {
					codigo = loja.Codigo
				}
			}
			if i > 0 {
				codigos += ", "
			}
			codigos += codigo
		}
		view.LojaLabel = fmt.Sprintf("%d lojas: %s", len(items), codigos)
		view.Roteiro = s.buildRoteiro(items, ref)
	}

	for _, item := range items {
		view.TotalPallets += item.Pallets
		view.TotalRolltrainers += item.Rolltrainers
	}

	if ref != nil {
		// A cache miss is a dangling reference, never an error.
		if lider, ok := ref.Lider(exp.LiderID); ok {
			view.LiderNome = lider.Nome
		}
		if doca, ok := ref.Doca(exp.DocaID); ok {
			view.DocaNome = doca.Nome
		}
		if exp.VeiculoID != "" {
			view.VeiculoPlaca = entity.NotAvailable
			if v, ok := ref.Veiculo(exp.VeiculoID); ok {
				view.VeiculoPlaca = v.Placa
			}
		}
		if exp.MotoristaID != "" {
			view.MotoristaNome = entity.NotAvailable
			if m, ok := ref.Motorista(exp.MotoristaID); ok {
				view.MotoristaNome = m.Nome
			}
		}
	}

	view.Urgencia = urgencia(s.now(), exp)
	return view
}

// buildRoteiro orders a grouped expedition's stops by delivery sequence,
// falling back to fetched order for items without one.
func (s *ViewModelService) buildRoteiro(items []entity.ExpeditionItem, ref *RefData) []entity.RouteStop {
	ordered := make([]entity.ExpeditionItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordemOf(ordered[i]) < ordemOf(ordered[j])
	})

	stops := make([]entity.RouteStop, 0, len(ordered))
	for i, item := range ordered {
		ordem := item.OrdemEntrega
		if ordem == 0 {
			ordem = i + 1
		}
		codigo := entity.NotAvailable
		if ref != nil {
			if loja, ok := ref.Loja(item.LojaID); ok {
				codigo = loja.Codigo
			}
		}
		status := item.StatusDescarga
		if status == "" {
			status = entity.DescargaPendente
		}
		stops = append(stops, entity.RouteStop{
			Ordem:          ordem,
			LojaCodigo:     codigo,
			StatusDescarga: status,
			Icone:          entity.DescargaIcon(status),
		})
	}
	return stops
}

func ordemOf(item entity.ExpeditionItem) int {
	if item.OrdemEntrega == 0 {
		return ordemEntregaUnset
	}
	return item.OrdemEntrega
}

// urgencia flags expeditions sitting open for more than 4 or 8 hours.
func urgencia(now time.Time, exp entity.Expedition) string {
	if exp.Status == entity.StatusEntregue || exp.Status == entity.StatusCancelado {
		return ""
	}
	if exp.DataHora.IsZero() {
		return ""
	}
	elapsed := now.Sub(exp.DataHora.Time)
	switch {
	case elapsed > 8*time.Hour:
		return "8h"
	case elapsed > 4*time.Hour:
		return "4h"
	default:
		return ""
	}
}
