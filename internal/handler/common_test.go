package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tixify/internal/auth"
	"tixify/internal/mocks"
	"tixify/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var (
	InvalidJSON = `{"invalid": json}`
)

type testServer struct {
	router         *gin.Engine
	authn          *auth.Authenticator
	events         *mocks.EventServiceMock
	tiers          *mocks.TierServiceMock
	checkout       *mocks.CheckoutServiceMock
	tickets        *mocks.TicketServiceMock
	reconciliation *mocks.QueueMock[model.ReconciliationCase]
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	authn, err := auth.NewAuthenticator("handler-test-secret")
	require.NoError(t, err)

	s := &testServer{
		authn:          authn,
		events:         new(mocks.EventServiceMock),
		tiers:          new(mocks.TierServiceMock),
		checkout:       new(mocks.CheckoutServiceMock),
		tickets:        new(mocks.TicketServiceMock),
		reconciliation: new(mocks.QueueMock[model.ReconciliationCase]),
	}
	s.router = NewRouter(authn, Services{
		Events:         s.events,
		Tiers:          s.tiers,
		Checkout:       s.checkout,
		Tickets:        s.tickets,
		Reconciliation: s.reconciliation,
	})
	return s
}

// token 工作人員預設替 org-1 服務
func (s *testServer) token(t *testing.T, subject string, role auth.Role) string {
	t.Helper()
	organizerID := ""
	if role == auth.RoleStaff {
		organizerID = "org-1"
	}
	return s.scopedToken(t, subject, role, organizerID)
}

func (s *testServer) scopedToken(t *testing.T, subject string, role auth.Role, organizerID string) string {
	t.Helper()
	token, err := s.authn.Issue(subject, role, organizerID, time.Hour)
	require.NoError(t, err)
	return token
}

// do 送出請求；token 為空時不帶 Authorization
func (s *testServer) do(method, url string, body interface{}, token string) *httptest.ResponseRecorder {
	var req *http.Request
	switch b := body.(type) {
	case nil:
		req, _ = http.NewRequest(method, url, nil)
	case string:
		req, _ = http.NewRequest(method, url, bytes.NewBufferString(b))
		req.Header.Set("Content-Type", "application/json")
	default:
		req = createJSONHTTPRequest(method, url, b)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// create JSON request body
func createJSONRequest(data interface{}) *bytes.Buffer {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return bytes.NewBuffer([]byte(""))
	}
	return bytes.NewBuffer(jsonData)
}

// create HTTP request with JSON body
func createJSONHTTPRequest(method, url string, data interface{}) *http.Request {
	req, err := http.NewRequest(method, url, createJSONRequest(data))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
