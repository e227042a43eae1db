package service

import (
	"strings"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
)

// FilterState is the user-applied predicate set over the view model.
type FilterState struct {
	Status string `json:"status"`
	Busca  string `json:"busca"`
}

func (f FilterState) Active() bool {
	return f.Status != "" || f.Busca != ""
}

// Stats are the four summary buckets shown above the list.
type Stats struct {
	Total       int `json:"total"`
	Pendentes   int `json:"pendentes"`
	EmAndamento int `json:"em_andamento"`
	Concluidas  int `json:"concluidas"`
}

var (
	pendenteStatuses = map[string]bool{
		entity.StatusAguardandoAgrupamento: true,
		entity.StatusAguardandoVeiculo:     true,
	}
	andamentoStatuses = map[string]bool{
		entity.StatusEmCarregamento:  true,
		entity.StatusCarregado:       true,
		entity.StatusSaiuParaEntrega: true,
	}
)

// ApplyFilters derives the filtered subset and the stat buckets. Stats are
// computed over the filtered subset when any filter is active, else over
// the full set.
func ApplyFilters(records []entity.ExpeditionView, f FilterState) ([]entity.ExpeditionView, Stats) {
	filtered := make([]entity.ExpeditionView, 0, len(records))
	busca := strings.ToLower(strings.TrimSpace(f.Busca))

	for _, rec := range records {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if busca != "" && !strings.Contains(searchText(rec), busca) {
			continue
		}
		filtered = append(filtered, rec)
	}

	basis := records
	if f.Active() {
		basis = filtered
	}

	var stats Stats
	stats.Total = len(basis)
	for _, rec := range basis {
		switch {
		case pendenteStatuses[rec.Status]:
			stats.Pendentes++
		case andamentoStatuses[rec.Status]:
			stats.EmAndamento++
		case rec.Status == entity.StatusEntregue:
			stats.Concluidas++
		}
	}
	return filtered, stats
}

func searchText(rec entity.ExpeditionView) string {
	parts := []string{
		rec.LojaLabel,
		rec.LiderNome,
		rec.DocaNome,
		rec.Observacoes,
		strings.Join(rec.Cargas, " "),
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// StatusOptions lists the distinct statuses present in the view model, in
// encounter order, for the status filter dropdown.
func StatusOptions(records []entity.ExpeditionView) []string {
	seen := make(map[string]bool, len(records))
	options := make([]string, 0, len(records))
	for _, rec := range records {
		if !seen[rec.Status] {
			seen[rec.Status] = true
			options = append(options, rec.Status)
		}
	}
	return options
}
