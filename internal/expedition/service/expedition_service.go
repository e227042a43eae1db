package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/entity"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
)

// ExpeditionService handles the one client-side write path: creating a
// dispatch header with its line items.
type ExpeditionService struct {
	gw      *gateway.Client
	refdata *RefDataService
	logger  *zap.Logger

	now func() time.Time
}

func NewExpeditionService(gw *gateway.Client, refdata *RefDataService, logger *zap.Logger) *ExpeditionService {
	return &ExpeditionService{gw: gw, refdata: refdata, logger: logger, now: time.Now}
}

// CreateExpeditionRequest is the dispatch form payload. One item per store;
// a grouped route carries more than one.
type CreateExpeditionRequest struct {
	DocaID       string              `json:"doca_id"`
	LiderID      string              `json:"lider_id"`
	Observacoes  string              `json:"observacoes"`
	NumerosCarga string              `json:"numeros_carga"`
	Items        []CreateItemRequest `json:"items"`
}

type CreateItemRequest struct {
	LojaID       string `json:"loja_id"`
	Pallets      int    `json:"pallets"`
	Rolltrainers int    `json:"rolltrainers"`
}

// Create validates the form, writes the header (filial injected by the
// gateway) and then the items (filial stripped by the gateway; a backend
// trigger assigns it). Returns the store label for the confirmation toast.
func (s *ExpeditionService) Create(ctx context.Context, req CreateExpeditionRequest) (string, error) {
	if req.DocaID == "" || req.LiderID == "" || len(req.Items) == 0 {
		return "", validationErr("Preencha todos os campos obrigatórios!")
	}
	for _, item := range req.Items {
		if item.LojaID == "" {
			return "", validationErr("Preencha todos os campos obrigatórios!")
		}
		if item.Pallets <= 0 && item.Rolltrainers <= 0 {
			return "", validationErr("Informe pallets ou rolltrainers para cada loja!")
		}
	}

	header := map[string]interface{}{
		"data_hora": s.now().Format(time.RFC3339),
		"lider_id":  req.LiderID,
		"doca_id":   req.DocaID,
		"status":    entity.StatusAguardandoAgrupamento,
	}
	if req.Observacoes != "" {
		header["observacoes"] = req.Observacoes
	}
	if cargas := entity.ParseCargoInput(req.NumerosCarga); cargas != nil {
		header["numeros_carga"] = cargas
	}

	raw, err := s.gw.Request(ctx, gateway.CollectionExpeditions, gateway.Create, header, true)
	if err != nil {
		return "", err
	}
	var created []entity.Expedition
	if err := json.Unmarshal(raw, &created); err != nil {
		return "", fmt.Errorf("failed to decode created expedition: %w", err)
	}
	if len(created) == 0 {
		return "", fmt.Errorf("proxy returned no record for the created expedition")
	}
	expeditionID := created[0].ID

	items := make([]map[string]interface{}, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, map[string]interface{}{
			"expedition_id":   expeditionID,
			"loja_id":         item.LojaID,
			"pallets":         item.Pallets,
			"rolltrainers":    item.Rolltrainers,
			"status_descarga": entity.DescargaPendente,
		})
	}
	if _, err := s.gw.Request(ctx, gateway.CollectionExpeditionItems, gateway.Create, items, false); err != nil {
		return "", err
	}

	label := lojaLabel(s.refdata.Snapshot(), req.Items[0].LojaID)
	if len(req.Items) > 1 {
		label = fmt.Sprintf("%d lojas", len(req.Items))
	}

	s.logger.Info("Expedition created",
		zap.String("expedition_id", expeditionID),
		zap.Int("items", len(req.Items)),
	)
	return label, nil
}

func lojaLabel(ref *RefData, lojaID string) string {
	if ref != nil {
		if loja, ok := ref.Loja(lojaID); ok {
			return loja.Nome
		}
	}
	return "Loja"
}
