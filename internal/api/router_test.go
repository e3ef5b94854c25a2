package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(SetupRouter(db, ServerConfig{JWTSecret: "router-secret", TokenTTL: time.Hour}, logger))
	t.Cleanup(srv.Close)
	return srv
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + client.BasePath + "/tasks")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != "Bearer" {
		t.Fatalf("expected bearer challenge, got %q", got)
	}
}

func TestValidationErrorsUseDetailList(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "ab", "email": "ab@example.com", "password": "secret123"})
	resp, err := http.Post(srv.URL+client.BasePath+"/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var payload struct {
		Detail []struct {
			Msg string `json:"msg"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Detail) != 1 || payload.Detail[0].Msg == "" {
		t.Fatalf("expected one message, got %+v", payload)
	}
}

func TestClientSeesServerDetails(t *testing.T) {
	srv := newTestServer(t)
	c := client.NewClient(srv.URL)
	auth := client.NewAuthService(c)
	ctx := context.Background()

	reg := models.Registration{Username: "ana", Email: "ana@example.com", Password: "secret123"}
	if _, err := auth.Register(ctx, reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := auth.Register(ctx, reg)
	var httpErr *client.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusBadRequest || httpErr.Detail != "Username or email already registered" {
		t.Fatalf("expected duplicate registration detail, got %v", err)
	}

	token, err := auth.Login(ctx, models.Credentials{Username: "ana", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.TokenType != "bearer" || token.AccessToken == "" {
		t.Fatalf("unexpected token %+v", token)
	}

	c.SetTokenSource(staticToken(token.AccessToken))
	tasks := client.NewTaskService(c)
	_, err = tasks.Get(ctx, 99)
	if !client.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
	if err := client.NewNotificationService(c).Delete(ctx, 5); !client.IsNotFound(err) {
		t.Fatalf("expected 404 for unknown notification, got %v", err)
	}
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestPatchWithNullClearsAssignee(t *testing.T) {
	srv := newTestServer(t)
	c := client.NewClient(srv.URL)
	auth := client.NewAuthService(c)
	ctx := context.Background()

	reg := models.Registration{Username: "ana", Email: "ana@example.com", Password: "secret123"}
	user, err := auth.Register(ctx, reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := auth.Login(ctx, models.Credentials{Username: "ana", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	c.SetTokenSource(staticToken(token.AccessToken))

	task, err := client.NewTaskService(c).Create(ctx, models.TaskInput{Title: "mine", AssignedToID: &user.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+client.BasePath+"/tasks/"+strconv.FormatInt(task.ID, 10),
		strings.NewReader(`{"assigned_to_id": null}`))
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got models.Task
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != http.StatusOK || got.AssignedToID != nil {
		t.Fatalf("expected assignee cleared, got %d %+v", resp.StatusCode, got)
	}
}
