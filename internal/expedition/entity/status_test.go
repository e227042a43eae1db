package entity

import "testing"

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusAguardandoAgrupamento, "Aguard. Agrupamento"},
		{StatusSaiuParaEntrega, "Em Entrega"},
		{StatusEntregue, "Entregue"},
		{StatusRetornandoCD, "Retornando"},
		{"algum_status_novo", "algum status novo"},
		{"simples", "simples"},
	}
	for _, tt := range tests {
		if got := StatusLabel(tt.status); got != tt.want {
			t.Errorf("StatusLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestDescargaIcon(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{DescargaPendente, "⏳"},
		{DescargaEmDescarga, "🚚"},
		{DescargaDescarregado, "✅"},
		{DescargaCancelado, "❌"},
		{"desconhecido", "⏳"},
		{"", "⏳"},
	}
	for _, tt := range tests {
		if got := DescargaIcon(tt.status); got != tt.want {
			t.Errorf("DescargaIcon(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
