package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func webhookRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupMinimalRoutes(r, &WebhookHandler{Token: token})
	return r
}

func TestWebhook_RejectsWrongToken(t *testing.T) {
	r := webhookRouter("secret")

	for _, guess := range []string{"guess", "secre", "secret2"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/webhook/"+guess, strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", guess, w.Code)
		}
	}
}

func TestWebhook_AcknowledgesMessagelessUpdate(t *testing.T) {
	r := webhookRouter("secret")

	// No message payload: acknowledged without touching the pipeline.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/secret", strings.NewReader(`{"update_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestWebhook_RejectsUndecodableBody(t *testing.T) {
	r := webhookRouter("secret")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/secret", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHealthPage(t *testing.T) {
	r := webhookRouter("secret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "live") {
		t.Errorf("health body = %q", w.Body.String())
	}
}
