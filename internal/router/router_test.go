package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mangareader/internal/db"
	"mangareader/internal/middleware"
	"mangareader/internal/models"
	"mangareader/internal/services"
	"mangareader/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	engine *gin.Engine
	conn   *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := services.New(conn, services.Options{Cache: utils.NewLocalCache(100)})
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(middleware.LoadUser(svc))
	RegisterRoutes(r, svc)
	return &testServer{engine: r, conn: conn}
}

// do sends a JSON request, optionally with a session cookie.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
	}
	return w, resp
}

// signup registers a user and returns its session cookies.
func (s *testServer) signup(t *testing.T, username string) []*http.Cookie {
	t.Helper()
	w, resp := s.do(t, http.MethodPost, "/api/signup", gin.H{"username": username, "password": "secret123"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signup %s: status %d %v", username, w.Code, resp)
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("signup %s: no session cookie", username)
	}
	return cookies
}

func (s *testServer) chapter(t *testing.T) *models.Chapter {
	t.Helper()
	manga := &models.Manga{Title: "Solo Climber"}
	if err := s.conn.Create(manga).Error; err != nil {
		t.Fatalf("create manga: %v", err)
	}
	ch := &models.Chapter{MangaID: manga.ID, Number: 1, Title: "Base Camp"}
	if err := s.conn.Create(ch).Error; err != nil {
		t.Fatalf("create chapter: %v", err)
	}
	return ch
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/chapters/1/comments"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPut, "/api/me/title"},
		{http.MethodPost, "/api/admin/mangas"},
	}
	for _, tc := range cases {
		w, resp := s.do(t, tc.method, tc.path, gin.H{}, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
		if resp["success"] != false {
			t.Errorf("%s %s: expected success=false, got %v", tc.method, tc.path, resp["success"])
		}
	}
}

func TestSignupStartsSession(t *testing.T) {
	s := newTestServer(t)
	cookies := s.signup(t, "reader")

	w, resp := s.do(t, http.MethodGet, "/api/me", nil, cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", w.Code)
	}
	user, ok := resp["user"].(map[string]interface{})
	if !ok || user["username"] != "reader" {
		t.Errorf("me: unexpected user %v", resp["user"])
	}

	w, _ = s.do(t, http.MethodPost, "/api/signup", gin.H{"username": "reader", "password": "secret123"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate signup: expected 409, got %d", w.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "reader")

	w, resp := s.do(t, http.MethodPost, "/api/login", gin.H{"username": "reader", "password": "wrong-one"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if resp["message"] != services.ErrInvalidCredentials.Error() {
		t.Errorf("unexpected message %v", resp["message"])
	}
}

func TestCommentReplyAndNotification(t *testing.T) {
	s := newTestServer(t)
	s.chapter(t)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	w, resp := s.do(t, http.MethodPost, "/api/chapters/1/comments", gin.H{"content": "Great chapter"}, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("post comment: expected 200, got %d %v", w.Code, resp)
	}
	if resp["xp_awarded"] != float64(11) {
		t.Errorf("expected 11 XP for a short comment, got %v", resp["xp_awarded"])
	}
	root := resp["comment"].(map[string]interface{})
	rootID := root["id"]

	w, resp = s.do(t, http.MethodPost, "/api/chapters/1/comments", gin.H{"content": "Agreed", "parent_id": rootID}, bob)
	if w.Code != http.StatusOK {
		t.Fatalf("post reply: expected 200, got %d %v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodGet, "/api/chapters/1/comments", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list comments: expected 200, got %d", w.Code)
	}
	threads := resp["comments"].([]interface{})
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	replies := threads[0].(map[string]interface{})["replies"].([]interface{})
	if len(replies) != 1 {
		t.Errorf("expected 1 reply, got %d", len(replies))
	}

	w, resp = s.do(t, http.MethodGet, "/api/notifications/unread-count", nil, alice)
	if w.Code != http.StatusOK {
		t.Fatalf("unread count: expected 200, got %d", w.Code)
	}
	if resp["unread_count"] != float64(1) {
		t.Errorf("expected 1 unread notification for alice, got %v", resp["unread_count"])
	}
}

func TestCommentValidationErrors(t *testing.T) {
	s := newTestServer(t)
	s.chapter(t)
	cookies := s.signup(t, "reader")

	w, _ := s.do(t, http.MethodPost, "/api/chapters/1/comments", gin.H{"content": "   "}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank content: expected 400, got %d", w.Code)
	}

	w, _ = s.do(t, http.MethodPost, "/api/chapters/99/comments", gin.H{"content": "hello"}, cookies)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing chapter: expected 404, got %d", w.Code)
	}

	w, _ = s.do(t, http.MethodPost, "/api/chapters/abc/comments", gin.H{"content": "hello"}, cookies)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}

func TestAdminRoutesForbidRegularUsers(t *testing.T) {
	s := newTestServer(t)
	cookies := s.signup(t, "reader")

	w, _ := s.do(t, http.MethodPost, "/api/admin/mangas", gin.H{"title": "Nope"}, cookies)
	if w.Code != http.StatusForbidden {
		t.Errorf("create manga: expected 403, got %d", w.Code)
	}
	w, _ = s.do(t, http.MethodPost, "/api/admin/changelog", gin.H{"title": "v2", "content": "x"}, cookies)
	if w.Code != http.StatusForbidden {
		t.Errorf("changelog: expected 403, got %d", w.Code)
	}
}

func TestAdminPublishesChapter(t *testing.T) {
	s := newTestServer(t)
	admin := s.signup(t, "admin")
	if err := s.conn.Model(&models.User{}).Where("username = ?", "admin").Update("is_admin", true).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	w, resp := s.do(t, http.MethodPost, "/api/admin/mangas", gin.H{"title": "Night Shift", "status": "Ongoing"}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("create manga: expected 200, got %d %v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodPost, "/api/admin/mangas/1/chapters", gin.H{
		"number": 1,
		"title":  "Clock In",
		"pages":  []string{"https://cdn.example.com/1.jpg", " ", "https://cdn.example.com/2.jpg"},
	}, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("create chapter: expected 200, got %d %v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodGet, "/api/chapters/1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("read chapter: expected 200, got %d", w.Code)
	}
	pages := resp["chapter"].(map[string]interface{})["pages"].([]interface{})
	if len(pages) != 2 {
		t.Errorf("expected 2 pages, got %d", len(pages))
	}

	w, _ = s.do(t, http.MethodPost, "/api/admin/mangas/1/chapters", gin.H{"number": 2, "pages": []string{""}}, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty pages: expected 400, got %d", w.Code)
	}
}

func TestReadChapterAwardsXPOnce(t *testing.T) {
	s := newTestServer(t)
	s.chapter(t)
	cookies := s.signup(t, "reader")

	_, resp := s.do(t, http.MethodGet, "/api/chapters/1", nil, cookies)
	if resp["xp_awarded"] != float64(services.ChapterViewXP) {
		t.Errorf("first view: expected %d XP, got %v", services.ChapterViewXP, resp["xp_awarded"])
	}
	_, resp = s.do(t, http.MethodGet, "/api/chapters/1", nil, cookies)
	if resp["xp_awarded"] != float64(0) {
		t.Errorf("second view: expected no XP, got %v", resp["xp_awarded"])
	}
}
