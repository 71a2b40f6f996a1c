package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/billchat/internal/auth"
	"github.com/mmynk/billchat/internal/interpreter"
	"github.com/mmynk/billchat/internal/session"
	"github.com/mmynk/billchat/internal/storage/sqlite"
)

// scriptedInterpreter returns canned oracle results for API tests.
type scriptedInterpreter struct {
	receipt interpreter.Receipt
	command interpreter.Command
}

func (s *scriptedInterpreter) ParseReceipt(ctx context.Context, image []byte) (interpreter.Receipt, error) {
	return s.receipt, nil
}

func (s *scriptedInterpreter) InterpretCommand(ctx context.Context, text string, itemNames []string) (interpreter.Command, error) {
	return s.command, nil
}

func setupTestServer(t *testing.T, interp interpreter.Interpreter) (*httptest.Server, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "billchat-api-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	svc := session.NewService(store, interp, 0)
	server := httptest.NewServer(New(svc, jwtManager).Handler())

	cleanup := func() {
		server.Close()
		store.Close()
		os.RemoveAll(tempDir)
	}
	return server, cleanup
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest("POST", url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createSession(t *testing.T, serverURL string) string {
	t.Helper()

	resp := postJSON(t, serverURL+"/api/sessions", "", map[string]string{"title": "Dinner"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var created struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &created)
	if created.Token == "" {
		t.Fatal("create session returned no token")
	}
	return created.Token
}

func TestAPI_FullFlow(t *testing.T) {
	interp := &scriptedInterpreter{
		receipt: interpreter.Receipt{
			Items: []interpreter.LineItem{
				{Name: "Nachos", Price: 10.00},
				{Name: "Pizza", Price: 20.00},
			},
			Tax: 3.00,
			Tip: 6.00,
		},
		command: interpreter.Command{
			Intent:     interpreter.IntentAssign,
			People:     []string{"Alice"},
			ItemSearch: "nachos",
		},
	}
	server, cleanup := setupTestServer(t, interp)
	defer cleanup()

	token := createSession(t, server.URL)

	// Upload a receipt
	req, _ := http.NewRequest("POST", server.URL+"/api/session/receipt", bytes.NewReader([]byte("jpeg-bytes")))
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var view sessionView
	decodeBody(t, resp, &view)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}

	// Assign nachos to Alice via chat
	resp = postJSON(t, server.URL+"/api/session/chat", token, map[string]string{"text": "Alice had the nachos"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("chat: status %d", resp.StatusCode)
	}
	decodeBody(t, resp, &view)
	if len(view.Items[0].AssignedTo) != 1 || view.Items[0].AssignedTo[0] != "Alice" {
		t.Errorf("nachos assigned = %v, want [Alice]", view.Items[0].AssignedTo)
	}

	// Summary reflects the assignment
	sreq, _ := http.NewRequest("GET", server.URL+"/api/session/summary", nil)
	sreq.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(sreq)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	var summary struct {
		Summaries []summaryView `json:"summaries"`
	}
	decodeBody(t, resp, &summary)
	if len(summary.Summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summary.Summaries))
	}
	alice := summary.Summaries[0]
	// Nachos 10.00, tax share 10/30*3 = 1.00, tip share 2.00, total 13.00
	if math.Abs(alice.Subtotal-10.0) > 0.01 || math.Abs(alice.Total-13.0) > 0.01 {
		t.Errorf("Alice summary = %+v, want subtotal 10.0 total 13.0", alice)
	}
}

func TestAPI_MultipartReceiptUpload(t *testing.T) {
	interp := &scriptedInterpreter{
		receipt: interpreter.Receipt{
			Items: []interpreter.LineItem{
				{Name: "Nachos", Price: 10.00},
				{Name: "Pizza", Price: 20.00},
			},
			Tax: 3.00,
			Tip: 6.00,
		},
	}
	server, cleanup := setupTestServer(t, interp)
	defer cleanup()

	token := createSession(t, server.URL)

	// Upload the image the way a browser FormData submit does.
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "receipt.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("jpeg-bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/session/receipt", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}

	var view sessionView
	decodeBody(t, resp, &view)
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	if view.Items[0].Name != "Nachos" || view.Items[1].Name != "Pizza" {
		t.Errorf("unexpected items: %+v", view.Items)
	}
}

func TestAPI_MultipartWithoutFilePart(t *testing.T) {
	server, cleanup := setupTestServer(t, &scriptedInterpreter{})
	defer cleanup()

	token := createSession(t, server.URL)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("note", "no file here"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	writer.Close()

	req, _ := http.NewRequest("POST", server.URL+"/api/session/receipt", &body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	server, cleanup := setupTestServer(t, &scriptedInterpreter{})
	defer cleanup()

	resp, err := http.Get(server.URL + "/api/session")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAPI_JoinWithPassphrase(t *testing.T) {
	server, cleanup := setupTestServer(t, &scriptedInterpreter{})
	defer cleanup()

	resp := postJSON(t, server.URL+"/api/sessions", "", map[string]string{
		"title":      "Protected",
		"passphrase": "nachos",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var created struct {
		Session sessionView `json:"session"`
	}
	decodeBody(t, resp, &created)
	if !created.Session.Protected {
		t.Error("expected session to be marked protected")
	}

	joinURL := server.URL + "/api/sessions/" + created.Session.SessionID + "/join"

	resp = postJSON(t, joinURL, "", map[string]string{"passphrase": "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong passphrase: status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, joinURL, "", map[string]string{"passphrase": "nachos"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: status %d", resp.StatusCode)
	}
	var joined struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &joined)
	if joined.Token == "" {
		t.Error("join returned no token")
	}
}

func TestAPI_UnknownSession(t *testing.T) {
	server, cleanup := setupTestServer(t, &scriptedInterpreter{})
	defer cleanup()

	resp := postJSON(t, server.URL+"/api/sessions/nope/join", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
