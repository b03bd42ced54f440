package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/auth"
	"workshop-web/internal/config"
	"workshop-web/internal/export"
	"workshop-web/internal/handler"
	"workshop-web/internal/models"
	"workshop-web/internal/repository"
	"workshop-web/internal/service"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const financialJSON = `{"success":true,"data":{
	"totalRevenue": 1000, "totalExpenses": 400, "netProfit": 600,
	"revenueByServices": {"Brakes": 600, "Oil Change": 300, "Alignment": 100},
	"monthlyTrends": [{"month": "Jan", "revenue": 400, "expenses": 150, "profit": 250}]
}}`

type nopQueue struct{}

func (nopQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type testApp struct {
	app      *fiber.App
	cfg      *config.Config
	sessions *session.Manager
	payments *service.PaymentService
	backend  http.HandlerFunc
	hits     map[string]*int32
}

// newTestApp wires the real router against a stub workshop backend. The
// backend handler can be swapped per test through app.backend.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	ta := &testApp{hits: map[string]*int32{}}
	for _, p := range []string{"/api/auth/login", "/api/auth/logout", "/api/reports/financial", "/api/reports/export"} {
		ta.hits[p] = new(int32)
	}
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/reports/financial":
			_, _ = io.WriteString(w, financialJSON)
		case "/api/auth/logout":
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n, ok := ta.hits[r.URL.Path]; ok {
			atomic.AddInt32(n, 1)
		}
		ta.backend(w, r)
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	ta.cfg = &config.Config{
		AppName:         "Workshop",
		AppEnv:          "development",
		SessionCookie:   "workshop_session",
		SessionTTL:      time.Hour,
		ReportRoles:     []string{"ADMIN", "MANAGER"},
		ExportFormats:   []string{"PDF", "EXCEL", "CSV"},
		UPIPollInterval: time.Second,
		UPIPollTimeout:  time.Minute,
		UPIStatusTTL:    time.Hour,
	}
	ta.sessions = session.NewManager(session.NewMemoryStorage(), session.Config{
		CookieName: ta.cfg.SessionCookie,
		TTL:        ta.cfg.SessionTTL,
	})
	client := apiclient.New(srv.URL+"/api", nil, apiclient.WithLogger(quiet))

	screens := service.NewScreenRegistry(func(id string) service.ReportBackend {
		return repository.NewReportRepository(client.WithStore(ta.sessions.For(id)))
	}, export.NewMemoryGuard(), ta.cfg.ExportFormats, quiet)
	ta.payments = service.NewPaymentService(rdb, nopQueue{}, ta.cfg, quiet)

	ta.app = fiber.New(fiber.Config{
		Views:        html.New("../../views", ".html"),
		ErrorHandler: handler.ErrorHandler,
	})
	Setup(ta.app, Dependencies{
		Config:   ta.cfg,
		Sessions: ta.sessions,
		Gate:     auth.NewGate("", quiet),
		Client:   client,
		Screens:  screens,
		Payments: ta.payments,
	})
	return ta
}

func (ta *testApp) calls(path string) int32 {
	return atomic.LoadInt32(ta.hits[path])
}

func makeToken(t *testing.T, roles ...string) string {
	t.Helper()
	return makeUserToken(t, 1, "admin", roles...)
}

func makeUserToken(t *testing.T, userID int64, username string, roles ...string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, utils.JWTClaims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

// newSession lets the app issue a session cookie and returns its ID.
func (ta *testApp) newSession(t *testing.T) string {
	t.Helper()
	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), "")
	resp.Body.Close()
	id := ta.cookie(resp)
	require.NotEmpty(t, id)
	return id
}

func (ta *testApp) cookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == ta.cfg.SessionCookie {
			return c.Value
		}
	}
	return ""
}

// login seeds an issued session with a token and returns its ID.
func (ta *testApp) login(t *testing.T, roles ...string) string {
	t.Helper()
	return ta.loginWith(t, makeToken(t, roles...))
}

func (ta *testApp) loginWith(t *testing.T, token string) string {
	t.Helper()
	id := ta.newSession(t)
	require.NoError(t, ta.sessions.For(id).SetToken(context.Background(), token))
	return id
}

func (ta *testApp) do(t *testing.T, req *http.Request, sessionID string) *http.Response {
	t.Helper()
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: ta.cfg.SessionCookie, Value: sessionID})
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestAnonymousPageRedirectsToLogin(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial", nil), "")

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "workshop_session=")
}

func TestAnonymousAPIGetsJSON401(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/reports/financial", ""), "")

	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "/login", body["redirect"])
}

func TestLoginPageRendersForGuests(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), "")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `action="/login"`)
}

func TestLoginPageSendsAuthenticatedUsersHome(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/login", nil), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestRoleMismatchRedirectsToUnauthorized(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "mechanic")

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial", nil), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/unauthorized", resp.Header.Get("Location"))

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/unauthorized", nil), id)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "does not have access")

	resp = ta.do(t, jsonRequest(http.MethodGet, "/api/v1/reports/financial", ""), id)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "/unauthorized", decode(t, resp)["redirect"])
}

func TestLoginStoresTokenInSession(t *testing.T) {
	ta := newTestApp(t)
	token := makeToken(t, "ROLE_ADMIN")

	var gotBody map[string]interface{}
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"token":"`+token+`","user":{"id":1,"username":"admin"}}}`)
	}

	guestID := ta.newSession(t)
	resp := ta.do(t, formRequest("/login", url.Values{"username": {"admin"}, "password": {"secret"}}), guestID)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Equal(t, "admin", gotBody["username"])

	id := ta.cookie(resp)
	require.NotEmpty(t, id)
	assert.NotEqual(t, guestID, id, "login issues a new session ID")

	stored, err := ta.sessions.For(id).GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	stored, err = ta.sessions.For(guestID).GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored, "the pre-login ID never holds the token")

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/", nil), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/reports/financial", resp.Header.Get("Location"))

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/", nil), guestID)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestPlantedSessionCookieIsNeverAuthenticated(t *testing.T) {
	ta := newTestApp(t)
	token := makeToken(t, "ADMIN")
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"token":"`+token+`","user":{"id":1,"username":"admin"}}}`)
	}

	planted := "11111111-2222-3333-4444-555555555555"
	resp := ta.do(t, formRequest("/login", url.Values{"username": {"admin"}, "password": {"secret"}}), planted)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.NotEqual(t, planted, ta.cookie(resp))

	stored, err := ta.sessions.For(planted).GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial", nil), planted)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginRejectedCredentials(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", decode(t, resp)["message"])
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", `{"username":"ad","password":""}`), "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, ta.calls("/api/auth/login"))
}

func TestLogoutClearsSession(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.EqualValues(t, 1, ta.calls("/api/auth/logout"))

	token, err := ta.sessions.For(id).GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestStateChangesRejectGET(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	resp.Body.Close()

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/logout", nil), id)
	assert.Contains(t, []int{fiber.StatusNotFound, fiber.StatusMethodNotAllowed}, resp.StatusCode)
	assert.Zero(t, ta.calls("/api/auth/logout"))

	token, err := ta.sessions.For(id).GetToken(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token, "a cross-site GET cannot sign the user out")

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial/panels/revenue-by-service/lens/pie", nil), id)
	assert.Contains(t, []int{fiber.StatusNotFound, fiber.StatusMethodNotAllowed}, resp.StatusCode)

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial", nil), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, readBody(t, resp), "<path d=", "the lens stays on the table")
}

func TestGenerateRendersReport(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, formRequest("/reports/financial/generate", url.Values{"timePeriod": {"monthly"}}), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Financial Report")
	assert.Contains(t, body, "Brakes")
	assert.Contains(t, body, "₹1,000.00")
	assert.Contains(t, body, `/reports/financial/export/PDF`)
}

func TestEmptyPanelsRenderNothing(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"totalRevenue":0,"revenueByServices":{},"monthlyTrends":[]}}`)
	}
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, formRequest("/reports/financial/generate", url.Values{"timePeriod": {"MONTHLY"}}), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "Financial Report")
	assert.NotContains(t, body, "No data")
	assert.NotContains(t, body, "Revenue by Service")
	assert.NotContains(t, body, `<article class="panel"`)
}

func TestGenerateJSONSnapshot(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "manager")

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{"timePeriod":"YEARLY"}`), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "populated", data["state"])
	assert.Len(t, data["panels"], 2)
	assert.Equal(t, "YEARLY", data["criteria"].(map[string]interface{})["timePeriod"])
}

func TestGenerateValidationNeverCallsBackend(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{"timePeriod":"CUSTOM","startDate":"2024-03-10"}`), id)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "endDate is required for a custom period", decode(t, resp)["message"])
	assert.Zero(t, ta.calls("/api/reports/financial"))

	resp = ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{"timePeriod":"CUSTOM","startDate":"03/10/2024"}`), id)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, ta.calls("/api/reports/financial"))
}

func TestBackend401LogsOutEverywhere(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}

	id := ta.login(t, "ADMIN")
	resp := ta.do(t, formRequest("/reports/financial/generate", url.Values{"timePeriod": {"MONTHLY"}}), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	token, err := ta.sessions.For(id).GetToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	id = ta.login(t, "ADMIN")
	resp = ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/login", decode(t, resp)["redirect"])
}

func TestBackendFailureKeepsScreen(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":false,"message":"Ledger is being rebuilt"}`)
	}
	resp = ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "Ledger is being rebuilt", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "failed", data["state"])
	assert.Len(t, data["panels"], 2)
}

func TestSetLensSwitchesView(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	resp.Body.Close()

	resp = ta.do(t, httptest.NewRequest(http.MethodPost, "/reports/financial/panels/revenue-by-service/lens/pie", nil), id)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/reports/financial#revenue-by-service", resp.Header.Get("Location"))

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial", nil), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "<path d=")

	resp = ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/panels/missing/lens/pie", ""), id)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestExportSendsAttachment(t *testing.T) {
	ta := newTestApp(t)
	var gotBody map[string]interface{}
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="fin-march.pdf"`)
		_, _ = io.WriteString(w, "%PDF-1.4")
	}
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial/export/pdf", nil), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "fin-march.pdf")
	assert.Equal(t, "%PDF-1.4", readBody(t, resp))
	assert.Equal(t, "PDF", gotBody["format"])
	assert.Equal(t, "FINANCIAL", gotBody["reportType"])
}

func TestExportUnknownFormat(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/reports/financial/export/xml", ""), id)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Zero(t, ta.calls("/api/reports/export"))
}

func TestConcurrentExportIsRejected(t *testing.T) {
	ta := newTestApp(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "a,b\n")
	}
	id := ta.login(t, "ADMIN")

	first := make(chan *http.Response, 1)
	go func() {
		resp, err := ta.app.Test(withSession(jsonRequest(http.MethodGet, "/api/v1/reports/financial/export/csv", ""), ta.cfg.SessionCookie, id), -1)
		if err != nil {
			first <- nil
			return
		}
		first <- resp
	}()
	<-entered

	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/reports/financial/export/pdf", ""), id)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	close(release)
	done := <-first
	require.NotNil(t, done)
	assert.Equal(t, fiber.StatusOK, done.StatusCode)
	assert.Contains(t, done.Header.Get("Content-Disposition"), "financial_report_")
	assert.EqualValues(t, 1, ta.calls("/api/reports/export"))
}

func withSession(req *http.Request, cookie, id string) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookie, Value: id})
	return req
}

func TestTableWorkbookNeedsData(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodGet, "/reports/financial/panels/revenue-by-service/table.xlsx", ""), id)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = ta.do(t, jsonRequest(http.MethodPost, "/api/v1/reports/financial/generate", `{}`), id)
	resp.Body.Close()

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/reports/financial/panels/revenue-by-service/table.xlsx", nil), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "financial_revenue-by-service_")
}

func TestUnknownReportIs404(t *testing.T) {
	ta := newTestApp(t)
	id := ta.login(t, "ADMIN")

	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/reports/payroll", ""), id)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPaymentStatus(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"transactionId":"TXN-1","upiId":"garage@upi","status":"PENDING"}}`)
	}
	id := ta.login(t)

	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/42/qr?amount=100", ""), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	require.NoError(t, ta.payments.RecordStatus(context.Background(), models.UPIStatus{
		TransactionID: "TXN-1",
		Status:        models.PaymentSuccess,
	}))

	resp = ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/TXN-1/status", ""), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := decode(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "SUCCESS", data["status"])

	resp = ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/TXN-404/status", ""), id)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPaymentStatusHiddenFromOtherUsers(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"transactionId":"TXN-5","upiId":"garage@upi","status":"PENDING"}}`)
	}
	owner := ta.login(t)

	resp := ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/7/qr?amount=250", ""), owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp.Body.Close()

	other := ta.loginWith(t, makeUserToken(t, 2, "cashier"))
	resp = ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/TXN-5/status", ""), other)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = ta.do(t, jsonRequest(http.MethodGet, "/api/v1/payments/TXN-5/status", ""), owner)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "PENDING", decode(t, resp)["data"].(map[string]interface{})["status"])
}

func TestPaymentQRPNG(t *testing.T) {
	ta := newTestApp(t)
	ta.backend = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"transactionId":"TXN-7","upiId":"garage@upi","payeeName":"City Garage","status":"PENDING"}}`)
	}
	id := ta.login(t)

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/payments/42/qr?amount=1500&format=png", nil), id)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(readBody(t, resp), "\x89PNG"))

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/payments/42/qr?amount=0", nil), id)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
