package service

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
)

func refDataFixture() *RefData {
	ref := &RefData{
		lojaByID: map[string]entity.Loja{
			"l1": {ID: "l1", Codigo: "001", Nome: "Loja Centro"},
			"l2": {ID: "l2", Codigo: "002", Nome: "Loja Norte"},
			"l3": {ID: "l3", Codigo: "003", Nome: "Loja Sul"},
		},
		docaByID: map[string]entity.Doca{
			"d1": {ID: "d1", Nome: "Doca 1"},
		},
		liderByID: map[string]entity.Lider{
			"lid1": {ID: "lid1", Nome: "Carlos"},
		},
		veiculoByID: map[string]entity.Veiculo{
			"v1": {ID: "v1", Placa: "ABC1D23"},
		},
		motoristaByID: map[string]entity.Motorista{
			"m1": {ID: "m1", Nome: "Pedro"},
		},
	}
	return ref
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestViewModelService(now time.Time) *ViewModelService {
	return &ViewModelService{logger: zap.NewNop(), now: fixedClock(now)}
}

func TestBuildViewEmptyExpedition(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := newTestViewModelService(now)

	exp := entity.Expedition{
		ID:       "e1",
		DataHora: entity.Timestamp{Time: now.Add(-time.Hour)},
		LiderID:  "lid1",
		DocaID:   "d1",
		Status:   entity.StatusAguardandoAgrupamento,
	}
	view := svc.buildView(exp, nil, refDataFixture())

	if view.Tipo != entity.ShipmentVazia {
		t.Errorf("Tipo = %s, want %s", view.Tipo, entity.ShipmentVazia)
	}
	if view.LojaLabel != "Sem itens" {
		t.Errorf("LojaLabel = %q, want Sem itens", view.LojaLabel)
	}
	if view.LiderNome != "Carlos" || view.DocaNome != "Doca 1" {
		t.Errorf("resolved names = %q / %q", view.LiderNome, view.DocaNome)
	}
	if view.Cargas == nil || len(view.Cargas) != 0 {
		t.Errorf("Cargas = %#v, want empty non-nil slice", view.Cargas)
	}
	if view.VeiculoPlaca != "" || view.MotoristaNome != "" {
		t.Errorf("vehicle fields should be empty when no IDs are set: %q %q", view.VeiculoPlaca, view.MotoristaNome)
	}
}

func TestBuildViewIndividual(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := newTestViewModelService(now)

	exp := entity.Expedition{
		ID:          "e1",
		DataHora:    entity.Timestamp{Time: now.Add(-time.Hour)},
		Status:      entity.StatusEmCarregamento,
		VeiculoID:   "v1",
		MotoristaID: "m1",
	}
	items := []entity.ExpeditionItem{
		{ID: "i1", ExpeditionID: "e1", LojaID: "l1", Pallets: 3, Rolltrainers: 2},
	}
	view := svc.buildView(exp, items, refDataFixture())

	if view.Tipo != entity.ShipmentIndividual {
		t.Errorf("Tipo = %s, want %s", view.Tipo, entity.ShipmentIndividual)
	}
	if view.LojaLabel != "001 - Loja Centro" {
		t.Errorf("LojaLabel = %q, want 001 - Loja Centro", view.LojaLabel)
	}
	if view.TotalLojas != 1 || view.TotalPallets != 3 || view.TotalRolltrainers != 2 {
		t.Errorf("totals = %d/%d/%d", view.TotalLojas, view.TotalPallets, view.TotalRolltrainers)
	}
	if view.VeiculoPlaca != "ABC1D23" || view.MotoristaNome != "Pedro" {
		t.Errorf("vehicle = %q driver = %q", view.VeiculoPlaca, view.MotoristaNome)
	}
	if view.LiderNome != entity.NotAvailable || view.DocaNome != entity.NotAvailable {
		t.Errorf("dangling references should render N/A: %q %q", view.LiderNome, view.DocaNome)
	}
	if view.Roteiro != nil {
		t.Error("individual expedition should not carry a route")
	}
}

func TestBuildViewAgrupada(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := newTestViewModelService(now)

	exp := entity.Expedition{
		ID:       "e1",
		DataHora: entity.Timestamp{Time: now.Add(-time.Hour)},
		Status:   entity.StatusSaiuParaEntrega,
	}
	items := []entity.ExpeditionItem{
		{ID: "i1", LojaID: "l2", Pallets: 1, OrdemEntrega: 2, StatusDescarga: entity.DescargaDescarregado},
		{ID: "i2", LojaID: "l1", Pallets: 2, OrdemEntrega: 1, StatusDescarga: entity.DescargaEmDescarga},
		{ID: "i3", LojaID: "l3", Pallets: 1},
	}
	view := svc.buildView(exp, items, refDataFixture())

	if view.Tipo != entity.ShipmentAgrupada {
		t.Errorf("Tipo = %s, want %s", view.Tipo, entity.ShipmentAgrupada)
	}
	if view.LojaLabel != "3 lojas: 002, 001, 003" {
		t.Errorf("LojaLabel = %q", view.LojaLabel)
	}
	if view.TotalLojas != 3 || view.TotalPallets != 4 {
		t.Errorf("totals = %d lojas / %d pallets", view.TotalLojas, view.TotalPallets)
	}

	// Route ordered by delivery sequence; the item without one goes last,
	// defaults to pending and gets a positional order.
	if len(view.Roteiro) != 3 {
		t.Fatalf("Roteiro len = %d, want 3", len(view.Roteiro))
	}
	wantStops := []entity.RouteStop{
		{Ordem: 1, LojaCodigo: "001", StatusDescarga: entity.DescargaEmDescarga, Icone: "🚚"},
		{Ordem: 2, LojaCodigo: "002", StatusDescarga: entity.DescargaDescarregado, Icone: "✅"},
		{Ordem: 3, LojaCodigo: "003", StatusDescarga: entity.DescargaPendente, Icone: "⏳"},
	}
	for i, want := range wantStops {
		if view.Roteiro[i] != want {
			t.Errorf("Roteiro[%d] = %+v, want %+v", i, view.Roteiro[i], want)
		}
	}
}

func TestBuildViewWithoutRefData(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc := newTestViewModelService(now)

	exp := entity.Expedition{ID: "e1", LiderID: "lid1", DocaID: "d1", Status: entity.StatusCarregado}
	items := []entity.ExpeditionItem{{ID: "i1", LojaID: "l1", Pallets: 1}}
	view := svc.buildView(exp, items, nil)

	if view.LojaLabel != entity.NotAvailable {
		t.Errorf("LojaLabel = %q, want %s", view.LojaLabel, entity.NotAvailable)
	}
	if view.LiderNome != entity.NotAvailable || view.DocaNome != entity.NotAvailable {
		t.Errorf("names = %q / %q, want N/A", view.LiderNome, view.DocaNome)
	}
}

func TestUrgencia(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		age    time.Duration
		status string
		want   string
	}{
		{"fresh", time.Hour, entity.StatusEmCarregamento, ""},
		{"over four hours", 5 * time.Hour, entity.StatusEmCarregamento, "4h"},
		{"over eight hours", 9 * time.Hour, entity.StatusEmCarregamento, "8h"},
		{"delivered is never urgent", 9 * time.Hour, entity.StatusEntregue, ""},
		{"cancelled is never urgent", 9 * time.Hour, entity.StatusCancelado, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := entity.Expedition{
				Status:   tt.status,
				DataHora: entity.Timestamp{Time: now.Add(-tt.age)},
			}
			if got := urgencia(now, exp); got != tt.want {
				t.Errorf("urgencia = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("missing timestamp", func(t *testing.T) {
		exp := entity.Expedition{Status: entity.StatusEmCarregamento}
		if got := urgencia(now, exp); got != "" {
			t.Errorf("urgencia = %q, want empty for zero timestamp", got)
		}
	})
}
