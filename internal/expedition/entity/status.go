package entity

import "strings"

// Expedition lifecycle statuses. The client only ever writes the initial
// value; the rest arrive from backend-side processes and must always render,
// known or not.
const (
	StatusAguardandoAgrupamento = "aguardando_agrupamento"
	StatusAguardandoDoca        = "aguardando_doca"
	StatusAguardandoVeiculo     = "aguardando_veiculo"
	StatusEmCarregamento        = "em_carregamento"
	StatusCarregado             = "carregado"
	StatusAguardandoFaturamento = "aguardando_faturamento"
	StatusFaturamentoIniciado   = "faturamento_iniciado"
	StatusFaturado              = "faturado"
	StatusSaiuParaEntrega       = "saiu_para_entrega"
	StatusEntregue              = "entregue"
	StatusCancelado             = "cancelado"
	StatusRetornandoCD          = "retornando_cd"
)

// Per-store unload statuses on expedition items.
const (
	DescargaPendente      = "pendente"
	DescargaEmDescarga    = "em_descarga"
	DescargaDescarregado  = "descarregado"
	DescargaCancelado     = "cancelado"
)

var statusLabels = map[string]string{
	DescargaPendente:            "Pendente",
	StatusAguardandoAgrupamento: "Aguard. Agrupamento",
	StatusAguardandoDoca:        "Aguard. Doca",
	StatusAguardandoVeiculo:     "Aguard. Veículo",
	StatusEmCarregamento:        "Carregando",
	StatusCarregado:             "Carregado",
	StatusAguardandoFaturamento: "Aguard. Faturamento",
	StatusFaturamentoIniciado:   "Faturando",
	StatusFaturado:              "Faturado",
	StatusSaiuParaEntrega:       "Em Entrega",
	StatusEntregue:              "Entregue",
	StatusRetornandoCD:          "Retornando",
	StatusCancelado:             "Cancelado",
}

// StatusLabel returns the human-readable label for a lifecycle status.
// Unknown codes fall back to the raw value with underscores spaced out.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return strings.ReplaceAll(status, "_", " ")
}

var descargaIcons = map[string]string{
	DescargaPendente:     "⏳",
	DescargaEmDescarga:   "🚚",
	DescargaDescarregado: "✅",
	DescargaCancelado:    "❌",
}

// DescargaIcon returns the icon marker for an unload status, defaulting to
// the pending marker for unknown codes.
func DescargaIcon(statusDescarga string) string {
	if icon, ok := descargaIcons[statusDescarga]; ok {
		return icon
	}
	return descargaIcons[DescargaPendente]
}
