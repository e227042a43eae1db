package gateway_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/testutil"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
)

type stubTenant struct {
	filial string
}

func (s *stubTenant) CurrentFilial() string { return s.filial }

func newTestClient(t *testing.T, filial string) (*gateway.Client, *testutil.FakeProxy) {
	t.Helper()
	proxy := testutil.NewFakeProxy(t)
	tenant := &stubTenant{filial: filial}
	client := gateway.NewClient(proxy.Server.URL, 5*time.Second, tenant, zap.NewNop())
	return client, proxy
}

func TestReadAppendsTenantFilter(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	if _, err := client.Request(context.Background(), "expeditions?order=data_hora.desc", gateway.Read, nil, true); err != nil {
		t.Fatalf("Request error: %v", err)
	}

	calls := proxy.CallsFor("expeditions")
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if got := calls[0].Query.Get("filial"); got != "eq.Filial A" {
		t.Errorf("filial query = %q, want %q", got, "eq.Filial A")
	}
	if got := calls[0].Query.Get("order"); got != "data_hora.desc" {
		t.Errorf("order query = %q, want %q", got, "data_hora.desc")
	}
}

func TestReadExemptCollectionsNotScoped(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	for _, collection := range []string{"credenciais", "filiais"} {
		if _, err := client.Request(context.Background(), collection, gateway.Read, nil, true); err != nil {
			t.Fatalf("Request(%s) error: %v", collection, err)
		}
		calls := proxy.CallsFor(collection)
		if len(calls) != 1 {
			t.Fatalf("expected 1 call for %s, got %d", collection, len(calls))
		}
		if got := calls[0].Query.Get("filial"); got != "" {
			t.Errorf("%s: filial query = %q, want empty", collection, got)
		}
	}
}

func TestReadWithoutFilialNotScoped(t *testing.T) {
	client, proxy := newTestClient(t, "")

	if _, err := client.Request(context.Background(), "expeditions", gateway.Read, nil, true); err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if got := proxy.CallsFor("expeditions")[0].Query.Get("filial"); got != "" {
		t.Errorf("filial query = %q, want empty", got)
	}
}

func TestReadUnscopedSkipsFilter(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	if _, err := client.Request(context.Background(), "veiculos?order=placa", gateway.Read, nil, false); err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if got := proxy.CallsFor("veiculos")[0].Query.Get("filial"); got != "" {
		t.Errorf("filial query = %q, want empty", got)
	}
}

func TestCreateInjectsFilial(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	payload := map[string]interface{}{"status": "aguardando_agrupamento"}
	if _, err := client.Request(context.Background(), "expeditions", gateway.Create, payload, true); err != nil {
		t.Fatalf("Request error: %v", err)
	}

	calls := proxy.CallsFor("expeditions")
	var sent map[string]interface{}
	if err := json.Unmarshal(calls[0].Body, &sent); err != nil {
		t.Fatalf("failed to decode sent body: %v", err)
	}
	if sent["filial"] != "Filial A" {
		t.Errorf("filial = %v, want Filial A", sent["filial"])
	}
	if got := calls[0].Header.Get("Prefer"); got != "return=representation" {
		t.Errorf("Prefer header = %q, want return=representation", got)
	}
}

func TestCreateStripsFilialOnTriggerCollection(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	payload := []map[string]interface{}{
		{"loja_id": "l1", "filial": "Filial B"},
		{"loja_id": "l2"},
	}
	if _, err := client.Request(context.Background(), "expedition_items", gateway.Create, payload, false); err != nil {
		t.Fatalf("Request error: %v", err)
	}

	var sent []map[string]interface{}
	if err := json.Unmarshal(proxy.CallsFor("expedition_items")[0].Body, &sent); err != nil {
		t.Fatalf("failed to decode sent body: %v", err)
	}
	if len(sent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(sent))
	}
	for i, rec := range sent {
		if _, ok := rec["filial"]; ok {
			t.Errorf("record %d still carries filial: %v", i, rec)
		}
	}
}

func TestUpdateSetsPreferHeader(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")

	payload := map[string]interface{}{"status": "cancelado"}
	if _, err := client.Request(context.Background(), "expeditions?id=eq.e1", gateway.Update, payload, true); err != nil {
		t.Fatalf("Request error: %v", err)
	}
	call := proxy.CallsFor("expeditions")[0]
	if got := call.Header.Get("Prefer"); got != "return=representation" {
		t.Errorf("Prefer header = %q, want return=representation", got)
	}
	if call.Method != "PATCH" {
		t.Errorf("method = %s, want PATCH", call.Method)
	}
}

func TestDeleteReturnsNoBody(t *testing.T) {
	client, _ := newTestClient(t, "Filial A")

	raw, err := client.Request(context.Background(), "expeditions?id=eq.e1", gateway.Delete, nil, true)
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil body for delete, got %s", raw)
	}
}

func TestBackendErrorBecomesAPIError(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")
	proxy.RespondStatus("expeditions", 409, `{"message":"conflito de chave","details":"ignorado"}`)

	_, err := client.Request(context.Background(), "expeditions", gateway.Read, nil, true)
	apiErr, ok := err.(*gateway.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != 409 {
		t.Errorf("Status = %d, want 409", apiErr.Status)
	}
	if apiErr.Message != "conflito de chave" {
		t.Errorf("Message = %q, want conflito de chave", apiErr.Message)
	}
	if apiErr.Error() != "erro 409: conflito de chave" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestBackendErrorFallsBackToDetails(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")
	proxy.RespondStatus("expeditions", 400, `{"details":"coluna invalida"}`)

	_, err := client.Request(context.Background(), "expeditions", gateway.Read, nil, true)
	apiErr, ok := err.(*gateway.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "coluna invalida" {
		t.Errorf("Message = %q, want coluna invalida", apiErr.Message)
	}
}

func TestNetworkErrorBecomesAPIError(t *testing.T) {
	proxy := testutil.NewFakeProxy(t)
	url := proxy.Server.URL
	proxy.Server.Close()

	client := gateway.NewClient(url, time.Second, &stubTenant{}, zap.NewNop())
	_, err := client.Request(context.Background(), "expeditions", gateway.Read, nil, true)
	apiErr, ok := err.(*gateway.APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != 0 {
		t.Errorf("Status = %d, want 0 for network failure", apiErr.Status)
	}
}

func TestGetDecodesResult(t *testing.T) {
	client, proxy := newTestClient(t, "Filial A")
	proxy.Respond("lojas", `[{"id":"l1","codigo":"001","nome":"Loja Centro","ativo":true}]`)

	var lojas []struct {
		ID     string `json:"id"`
		Codigo string `json:"codigo"`
	}
	if err := client.Get(context.Background(), "lojas?ativo=eq.true", true, &lojas); err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(lojas) != 1 || lojas[0].Codigo != "001" {
		t.Errorf("unexpected result: %+v", lojas)
	}
}
