package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/agritech-golang/internal/auth"
	"github.com/01moynul/agritech-golang/internal/content"
	"github.com/01moynul/agritech-golang/internal/database/dbtest"
	"github.com/01moynul/agritech-golang/internal/diagnosis"
	"github.com/01moynul/agritech-golang/internal/handlers"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/orders"
	"github.com/01moynul/agritech-golang/internal/routes"
	"github.com/01moynul/agritech-golang/internal/session"
	"github.com/01moynul/agritech-golang/internal/storage"
	"github.com/01moynul/agritech-golang/internal/vision"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse-battery"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

// --- Fakes ---

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, body)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	code := codePattern.FindString(m.sent[len(m.sent)-1])
	require.NotEmpty(t, code)
	return code
}

type fakeVision struct{ assessment *vision.Assessment }

func (f *fakeVision) Assess(context.Context, []byte) (*vision.Assessment, error) {
	return f.assessment, nil
}

type fakeAdvisor struct{}

func (fakeAdvisor) PreventionMethods(_ context.Context, disease, plant string) string {
	return "- treat " + disease + " on " + plant
}

type fakeEvents struct{}

func (fakeEvents) Events(context.Context) []content.Event {
	return []content.Event{{Name: "Seed Fair", Date: "TBA", Location: "Online"}}
}

type fakeAssistant struct{ lastCategory string }

func (f *fakeAssistant) Chat(_ context.Context, msg, category string) (string, int, error) {
	f.lastCategory = category
	return "You asked: " + msg, 42, nil
}

// --- Environment ---

type env struct {
	h         *handlers.Handlers
	router    *gin.Engine
	mr        *miniredis.Miniredis
	mail      *recordingMailer
	vision    *fakeVision
	assistant *fakeAssistant
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "http://api.test")
	require.NoError(t, err)

	e := &env{
		mr:        mr,
		mail:      &recordingMailer{},
		vision:    &fakeVision{assessment: &vision.Assessment{HealthyProbability: 0.9}},
		assistant: &fakeAssistant{},
	}
	h := handlers.New(db, db)
	h.Sessions = session.NewStore(rdb, time.Hour)
	h.Tokens = auth.NewTokenIssuer("test-secret", time.Hour)
	h.Mailer = e.mail
	h.Storage = store
	h.Orders = orders.NewService(db, h.Notifications, nil)
	h.Diagnosis = &diagnosis.Service{Vision: e.vision, Advisor: fakeAdvisor{}, Scans: h.Scans}
	h.Events = fakeEvents{}
	h.Assistant = e.assistant
	h.Now = func() time.Time { return time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC) }

	e.h = h
	e.router = routes.SetupRouter(h, routes.Options{CORSOrigin: "http://localhost:5173", UploadDir: uploadDir})
	return e
}

// user inserts a user directly and returns it.
func (e *env) user(t *testing.T, email string, cat models.UserCategory) *models.User {
	t.Helper()
	var pw models.Password
	require.NoError(t, pw.Set(testPassword))
	u := &models.User{Email: email, PasswordHash: pw.Hash, FirstName: "Test", LastName: "User", Category: cat}
	require.NoError(t, e.h.Users.Create(context.Background(), u))
	return u
}

// login opens a session for u and returns its id.
func (e *env) login(t *testing.T, u *models.User) string {
	t.Helper()
	sess, err := e.h.Sessions.Create(context.Background(), u)
	require.NoError(t, err)
	return sess.ID
}

func (e *env) do(method, path, sessionID string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(middleware.HeaderSessionID, sessionID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field, name string
	data        []byte
}

func (e *env) upload(t *testing.T, path, sessionID string, files []formFile, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderSessionID, sessionID)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["error"].(string)
}
