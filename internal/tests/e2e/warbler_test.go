//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/warbler-social/server/config"
	"github.com/warbler-social/server/internal/db"
	"github.com/warbler-social/server/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestSocialLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	author := fmt.Sprintf("author_%d", suffix)
	reader := fmt.Sprintf("reader_%d", suffix)
	password := "testpass123!"

	authorClient := newBrowser(t)
	signupUser(t, authorClient, baseURL, author, password)

	body := postForm(t, authorClient, baseURL+"/messages/new", url.Values{
		"text": {"hello from e2e"},
	})
	if !strings.Contains(body, "hello from e2e") {
		t.Fatalf("expected created message page, got: %s", snippet(body))
	}

	readerClient := newBrowser(t)
	signupUser(t, readerClient, baseURL, reader, password)

	authorID, err := lookupUserID(author)
	if err != nil {
		t.Fatalf("lookup author id: %v", err)
	}

	body = postForm(t, readerClient, fmt.Sprintf("%s/users/follow/%d", baseURL, authorID), nil)
	if !strings.Contains(body, "Unfollow") {
		t.Fatalf("expected follow to take effect, got: %s", snippet(body))
	}

	body = getPage(t, readerClient, baseURL+"/")
	if !strings.Contains(body, "hello from e2e") {
		t.Fatalf("expected followed message in feed, got: %s", snippet(body))
	}

	// The same flows work over the JSON API.
	token, err := apiLogin(baseURL, reader, password)
	if err != nil {
		t.Fatalf("api login: %v", err)
	}
	feed, err := apiFeed(baseURL, token)
	if err != nil {
		t.Fatalf("api feed: %v", err)
	}
	found := false
	for _, message := range feed {
		if message.Text == "hello from e2e" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected e2e message in api feed, got %d messages", len(feed))
	}

	// A stranger cannot delete the author's message.
	body = postForm(t, readerClient, fmt.Sprintf("%s/messages/%d/delete", baseURL, feed[0].ID), nil)
	if !strings.Contains(body, "Access unauthorized.") {
		t.Fatalf("expected authorization failure, got: %s", snippet(body))
	}
}

type apiMessage struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

type apiAuthResponse struct {
	Token string `json:"token"`
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func signupUser(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()
	body := postForm(t, client, baseURL+"/signup", url.Values{
		"username": {username},
		"email":    {fmt.Sprintf("%s@example.com", username)},
		"password": {password},
	})
	if !strings.Contains(body, "@"+username) {
		t.Fatalf("expected signed-in page for %s, got: %s", username, snippet(body))
	}
}

func getPage(t *testing.T, client *http.Client, target string) string {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("get %s: %v", target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s status %d: %s", target, resp.StatusCode, snippet(string(data)))
	}
	return string(data)
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) string {
	t.Helper()
	resp, err := client.PostForm(target, form)
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post %s status %d: %s", target, resp.StatusCode, snippet(string(data)))
	}
	return string(data)
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > 300 {
		return body[:300]
	}
	return body
}

func lookupUserID(username string) (int, error) {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildPostgresURL(cfg))
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id int
	err = conn.QueryRowContext(ctx, "SELECT id FROM users WHERE username = $1", username).Scan(&id)
	return id, err
}

func apiLogin(baseURL, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	resp, err := http.Post(baseURL+"/api/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed apiAuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in login response")
	}
	return parsed.Token, nil
}

func apiFeed(baseURL, token string) ([]apiMessage, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/feed", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("feed status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var messages []apiMessage
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.BuildPostgresURL(cfg))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("SESSION_SECRET", "test-session-secret")
	_ = os.Setenv("JWT_SECRET", "test-jwt-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "warbler")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "warbler_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("BROKER_BACKEND", "none")
	_ = os.Setenv("STORAGE_BACKEND", "none")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
