package service

import (
	"reflect"
	"testing"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
)

func filterFixture() []entity.ExpeditionView {
	mk := func(id, status, lojaLabel, lider, obs string, cargas ...string) entity.ExpeditionView {
		v := entity.ExpeditionView{
			Expedition: entity.Expedition{ID: id, Status: status, Observacoes: obs},
			LojaLabel:  lojaLabel,
			LiderNome:  lider,
			Cargas:     cargas,
		}
		return v
	}
	return []entity.ExpeditionView{
		mk("e1", entity.StatusAguardandoAgrupamento, "001 - Loja Centro", "Carlos", ""),
		mk("e2", entity.StatusEmCarregamento, "002 - Loja Norte", "Ana", "urgente"),
		mk("e3", entity.StatusSaiuParaEntrega, "3 lojas: 001, 002, 003", "Carlos", "", "4521"),
		mk("e4", entity.StatusEntregue, "002 - Loja Norte", "Ana", ""),
		mk("e5", entity.StatusCancelado, "Sem itens", "Bruno", ""),
	}
}

func ids(records []entity.ExpeditionView) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestApplyFiltersNoFilter(t *testing.T) {
	filtered, stats := ApplyFilters(filterFixture(), FilterState{})

	if len(filtered) != 5 {
		t.Errorf("filtered len = %d, want 5", len(filtered))
	}
	want := Stats{Total: 5, Pendentes: 1, EmAndamento: 2, Concluidas: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestApplyFiltersByStatus(t *testing.T) {
	filtered, stats := ApplyFilters(filterFixture(), FilterState{Status: entity.StatusEmCarregamento})

	if got := ids(filtered); !reflect.DeepEqual(got, []string{"e2"}) {
		t.Errorf("filtered = %v, want [e2]", got)
	}
	// Stats follow the filtered subset once any filter is active.
	want := Stats{Total: 1, Pendentes: 0, EmAndamento: 1, Concluidas: 0}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestApplyFiltersBySearch(t *testing.T) {
	tests := []struct {
		name  string
		busca string
		want  []string
	}{
		{"loja label", "norte", []string{"e2", "e4"}},
		{"lider name case-insensitive", "CARLOS", []string{"e1", "e3"}},
		{"observacoes", "urgente", []string{"e2"}},
		{"cargo number", "4521", []string{"e3"}},
		{"no match", "inexistente", []string{}},
		{"surrounding whitespace", "  norte  ", []string{"e2", "e4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filtered, _ := ApplyFilters(filterFixture(), FilterState{Busca: tt.busca})
			if got := ids(filtered); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filtered = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFiltersCombined(t *testing.T) {
	f := FilterState{Status: entity.StatusEntregue, Busca: "norte"}
	filtered, stats := ApplyFilters(filterFixture(), f)

	if got := ids(filtered); !reflect.DeepEqual(got, []string{"e4"}) {
		t.Errorf("filtered = %v, want [e4]", got)
	}
	if stats.Total != 1 || stats.Concluidas != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStatusOptionsEncounterOrder(t *testing.T) {
	records := filterFixture()
	records = append(records, records[0]) // duplicate status must not repeat

	got := StatusOptions(records)
	want := []string{
		entity.StatusAguardandoAgrupamento,
		entity.StatusEmCarregamento,
		entity.StatusSaiuParaEntrega,
		entity.StatusEntregue,
		entity.StatusCancelado,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StatusOptions = %v, want %v", got, want)
	}
}
