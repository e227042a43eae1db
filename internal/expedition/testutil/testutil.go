package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/service"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/expedition/sse"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/gateway"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/middleware"
	"github.com/jptechsolutions-a11y/APPOPERA/internal/sessionstore"
)

const JWTSecret = "appopera-jwt-secret-for-tests"

// ProxyCall records one request received by the fake proxy.
type ProxyCall struct {
	Method   string
	Endpoint string
	Query    url.Values
	Header   http.Header
	Body     []byte
}

// FakeProxy emulates the REST proxy the gateway talks to. Responses are
// registered per collection; every received request is recorded for
// assertions.
type FakeProxy struct {
	Server *httptest.Server

	mu        sync.Mutex
	calls     []ProxyCall
	responses map[string]string
	status    map[string]int
}

func NewFakeProxy(t *testing.T) *FakeProxy {
	t.Helper()
	p := &FakeProxy{
		responses: make(map[string]string),
		status:    make(map[string]int),
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.Server.Close)
	return p
}

func (p *FakeProxy) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	query := r.URL.Query()
	collection := query.Get("endpoint")

	p.mu.Lock()
	p.calls = append(p.calls, ProxyCall{
		Method:   r.Method,
		Endpoint: collection,
		Query:    query,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	resp, ok := p.responses[collection]
	code := p.status[collection]
	p.mu.Unlock()

	if code == 0 {
		code = http.StatusOK
		if r.Method == http.MethodPost {
			code = http.StatusCreated
		}
	}
	if !ok {
		resp = "[]"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(resp))
}

// Respond registers the JSON body returned for a collection.
func (p *FakeProxy) Respond(collection, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[collection] = body
}

// RespondStatus registers a response with an explicit HTTP status.
func (p *FakeProxy) RespondStatus(collection string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[collection] = body
	p.status[collection] = status
}

// Calls returns a copy of every recorded request.
func (p *FakeProxy) Calls() []ProxyCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ProxyCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallsFor returns the recorded requests for one collection.
func (p *FakeProxy) CallsFor(collection string) []ProxyCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ProxyCall
	for _, c := range p.calls {
		if c.Endpoint == collection {
			out = append(out, c)
		}
	}
	return out
}

// TestEnv wires the full service stack against a fake proxy and a
// throwaway file session store.
type TestEnv struct {
	Proxy   *FakeProxy
	Store   sessionstore.Store
	Session *service.SessionService
	Gateway *gateway.Client
	RefData *service.RefDataService
	Hub     *sse.Hub
	App     *service.AppService
}

func SetupEnv(t *testing.T) *TestEnv {
	return SetupEnvWithInterval(t, time.Minute)
}

// SetupEnvWithInterval builds the same stack with an explicit reload
// interval, for tests that exercise the polling lifecycle.
func SetupEnvWithInterval(t *testing.T, reloadInterval time.Duration) *TestEnv {
	t.Helper()

	proxy := NewFakeProxy(t)
	store, err := sessionstore.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}

	logger := zap.NewNop()
	sessionSvc := service.NewSessionService(store, logger)
	gw := gateway.NewClient(proxy.Server.URL, 5*time.Second, sessionSvc, logger)
	sessionSvc.SetGateway(gw)

	refdataSvc := service.NewRefDataService(gw, logger)
	viewmodelSvc := service.NewViewModelService(gw, refdataSvc, logger)
	expeditionSvc := service.NewExpeditionService(gw, refdataSvc, logger)
	hub := sse.NewHub()
	app := service.NewAppService(sessionSvc, refdataSvc, viewmodelSvc, expeditionSvc, hub, reloadInterval, logger)

	return &TestEnv{
		Proxy:   proxy,
		Store:   store,
		Session: sessionSvc,
		Gateway: gw,
		RefData: refdataSvc,
		Hub:     hub,
		App:     app,
	}
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(credencial string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"cred": credencial,
		"sub":  credencial,
		"iss":  "appopera",
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
		"jti":  fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test credential
func DefaultTestToken() string {
	return GenerateTestToken("CRED-TEST-001")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a generic map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
