package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"supportly-be/internal/pkg/logger"
	"supportly-be/internal/pkg/serverutils"
	"supportly-be/internal/repository/memory"
	"supportly-be/internal/service"
	"supportly-be/pkg/queue"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminSecret = "admin-secret"

type nopPublisher struct{ jobs []queue.Job }

func (p *nopPublisher) Enqueue(ctx context.Context, job queue.Job) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *nopPublisher) {
	t.Helper()
	store := memory.NewStore()
	pub := &nopPublisher{}
	log := logger.NewNopLogger()

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	api := app.Group("/api")
	auth := serverutils.JwtMiddleware(adminSecret)

	NewWidgetAuthController("ws-secret", time.Minute).RegisterRoutes(api)
	NewTrainingController(service.NewTrainingService(store, pub, log)).RegisterRoutes(api, auth)
	NewConversationController(service.NewConversationService(store, nil, log)).RegisterRoutes(api, auth)
	NewHealthController("api").RegisterRoutes(app)
	return app, pub
}

func bearer(t *testing.T, tenant uuid.UUID) string {
	tok, err := serverutils.IssueTenantToken(adminSecret, tenant, time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok
}

func decodeData(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var res struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res.Data
}

func TestWidgetAuthIssuesTenantToken(t *testing.T) {
	app, _ := newTestApp(t)
	tenant := uuid.New()

	req := httptest.NewRequest("POST", "/api/widget-auth", bytes.NewBufferString(`{"tenantId":"`+tenant.String()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var body struct {
		Data struct {
			Token     string `json:"token"`
			ExpiresIn int    `json:"expiresIn"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 60, body.Data.ExpiresIn)

	got, err := serverutils.ParseTenantToken("ws-secret", body.Data.Token)
	require.NoError(t, err)
	assert.Equal(t, tenant, got)

	req = httptest.NewRequest("POST", "/api/widget-auth", bytes.NewBufferString(`{"tenant_id":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestScrapeRequiresBearer(t *testing.T) {
	app, pub := newTestApp(t)

	payload := `{"botId":"` + uuid.NewString() + `","url":"https://docs.example.com"}`
	req := httptest.NewRequest("POST", "/api/training/scrape", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	assert.Equal(t, 401, resp.StatusCode)

	tenant := uuid.New()
	req = httptest.NewRequest("POST", "/api/training/scrape", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, tenant))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, tenant, pub.jobs[0].TenantId)

	req = httptest.NewRequest("GET", "/api/training/sources/"+pub.jobs[0].SourceId.String(), nil)
	req.Header.Set("Authorization", bearer(t, tenant))
	resp, _ = app.Test(req)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "pending", decodeData(t, resp.Body)["status"])
}

func TestUploadMultipart(t *testing.T) {
	app, pub := newTestApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("botId", uuid.NewString()))
	fw, err := w.CreateFormFile("file", "faq.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Shipping takes two to four days."))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/training/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, uuid.New()))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 202, resp.StatusCode)
	require.Len(t, pub.jobs, 1)
	assert.Equal(t, "Shipping takes two to four days.", pub.jobs[0].Text)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestConversationRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	tenant := uuid.New()
	path := "/api/conversations/" + uuid.NewString()

	req := httptest.NewRequest("POST", path+"/messages", bytes.NewBufferString(`{"text":""}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, tenant))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode, "an agent reply needs text")

	req = httptest.NewRequest("POST", path+"/messages", bytes.NewBufferString(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, tenant))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	req = httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", bearer(t, tenant))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
