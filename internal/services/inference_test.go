package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestInferenceClient_Generate(t *testing.T) {
	var gotAuth, gotContentType string
	var gotReq InferenceRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotReq)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"response": "Mass times acceleration."})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL)
	reply, err := client.Generate(context.Background(), "access-token-123", InferenceRequest{
		ChatID:   "chat-1",
		Subject:  "physics",
		Language: "english",
		Message:  "What is force?",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if reply != "Mass times acceleration." {
		t.Fatalf("reply = %q", reply)
	}
	if gotAuth != "Bearer access-token-123" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if gotReq.ChatID != "chat-1" || gotReq.Subject != "physics" || gotReq.Language != "english" || gotReq.Message != "What is force?" {
		t.Fatalf("unexpected request body: %+v", gotReq)
	}
}

func TestInferenceClient_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("model overloaded"))
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL)
	_, err := client.Generate(context.Background(), "tok", InferenceRequest{Message: "hi"})

	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
	if infErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", infErr.StatusCode)
	}
	if infErr.Detail != "model overloaded" {
		t.Fatalf("detail = %q", infErr.Detail)
	}
}

func TestInferenceClient_EmptyErrorBodyFallsBackToStatusLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL)
	_, err := client.Generate(context.Background(), "tok", InferenceRequest{Message: "hi"})

	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("expected InferenceError, got %v", err)
	}
	if !strings.Contains(infErr.Detail, "502") {
		t.Fatalf("detail should fall back to the status line, got %q", infErr.Detail)
	}
}

func TestInferenceClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewInferenceClient(server.URL)
	_, err := client.Generate(context.Background(), "tok", InferenceRequest{Message: "hi"})
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	var infErr *InferenceError
	if errors.As(err, &infErr) {
		t.Fatalf("transport failures are not InferenceErrors: %v", err)
	}
}
