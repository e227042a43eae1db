package entity

import (
	"fmt"
	"strings"
	"time"
)

// Credencial is an access credential issued to a warehouse device. It is
// loaded from the backend and never mutated locally.
type Credencial struct {
	ID               string       `json:"id"`
	CodigoCredencial string       `json:"codigo_credencial"`
	IPAddress        string       `json:"ip_address"`
	EmpresasAcesso   []string     `json:"empresas_acesso"`
	Ativo            bool         `json:"ativo"`
	CreatedAt        *Timestamp   `json:"created_at,omitempty"`
}

// Filial is a tenant: an isolated partition of dispatch data.
type Filial struct {
	Nome      string `json:"nome"`
	Descricao string `json:"descricao"`
	Ativo     bool   `json:"ativo"`
}

// Reference entities, fetched wholesale per filial and cached read-only.

type Loja struct {
	ID     string `json:"id"`
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
	Ativo  bool   `json:"ativo"`
}

type Doca struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Ativo bool   `json:"ativo"`
}

type Lider struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Ativo bool   `json:"ativo"`
}

type Veiculo struct {
	ID    string `json:"id"`
	Placa string `json:"placa"`
}

type Motorista struct {
	ID   string `json:"id"`
	Nome string `json:"nome"`
}

// Expedition is a dispatch header: one truck-load or delivery run. The
// client writes it once; every later status transition is backend-driven.
type Expedition struct {
	ID           string       `json:"id"`
	DataHora     Timestamp    `json:"data_hora"`
	LiderID      string       `json:"lider_id"`
	DocaID       string       `json:"doca_id"`
	Status       string       `json:"status"`
	Observacoes  string       `json:"observacoes,omitempty"`
	NumerosCarga CargoNumbers `json:"numeros_carga"`
	VeiculoID    string       `json:"veiculo_id,omitempty"`
	MotoristaID  string       `json:"motorista_id,omitempty"`
	Filial       string       `json:"filial,omitempty"`
}

// ExpeditionItem is a per-store allocation within an expedition. The filial
// column is assigned by a backend trigger, never by the client.
type ExpeditionItem struct {
	ID             string `json:"id"`
	ExpeditionID   string `json:"expedition_id"`
	LojaID         string `json:"loja_id"`
	Pallets        int    `json:"pallets"`
	Rolltrainers   int    `json:"rolltrainers"`
	StatusDescarga string `json:"status_descarga"`
	OrdemEntrega   int    `json:"ordem_entrega,omitempty"`
	Filial         string `json:"filial,omitempty"`
}

// ShipmentKind classifies an expedition by its item count.
type ShipmentKind string

const (
	ShipmentIndividual ShipmentKind = "individual"
	ShipmentAgrupada   ShipmentKind = "agrupada"
	ShipmentVazia      ShipmentKind = "vazia"
)

// NotAvailable marks a dangling reference resolved against the cache.
const NotAvailable = "N/A"

// RouteStop is one store of a grouped expedition's delivery route.
type RouteStop struct {
	Ordem          int    `json:"ordem"`
	LojaCodigo     string `json:"loja_codigo"`
	StatusDescarga string `json:"status_descarga"`
	Icone          string `json:"icone"`
}

// ExpeditionView is the denormalized, display-ready record. It is rebuilt
// fully on every load and never patched in place.
type ExpeditionView struct {
	Expedition

	Tipo              ShipmentKind     `json:"tipo"`
	LojaLabel         string           `json:"loja_nome"`
	TotalLojas        int              `json:"total_lojas"`
	Items             []ExpeditionItem `json:"items"`
	LiderNome         string           `json:"lider_nome"`
	DocaNome          string           `json:"doca_nome"`
	VeiculoPlaca      string           `json:"veiculo_placa,omitempty"`
	MotoristaNome     string           `json:"motorista_nome,omitempty"`
	TotalPallets      int              `json:"total_pallets"`
	TotalRolltrainers int              `json:"total_rolltrainers"`
	Roteiro           []RouteStop      `json:"roteiro,omitempty"`
	Urgencia          string           `json:"urgencia,omitempty"`
	Cargas            []string         `json:"cargas"`
}

// Timestamp wraps time.Time to accept the backend's timestamp shapes: the
// proxy emits RFC3339 with offset for timestamptz columns and a bare
// "2006-01-02T15:04:05" for timestamp columns.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339) + `"`), nil
}
