package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renamer/internal/config"
	"renamer/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyTaskFailed(context.Background(), "a.mkv", errors.New("boom")); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServicePublishesAlerts(t *testing.T) {
	type capture struct {
		title    string
		priority string
		body     string
	}
	var got capture
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = capture{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyTaskFailed(context.Background(), "Show E01.mkv", errors.New("download stalled")); err != nil {
		t.Fatalf("NotifyTaskFailed: %v", err)
	}
	if got.title != "Renamer - Task Failed" {
		t.Errorf("title = %q", got.title)
	}
	if got.priority != "high" {
		t.Errorf("priority = %q", got.priority)
	}
	if !strings.Contains(got.body, "Show E01.mkv") || !strings.Contains(got.body, "download stalled") {
		t.Errorf("body = %q", got.body)
	}

	if err := svc.NotifyDaemonStarted(context.Background()); err != nil {
		t.Fatalf("NotifyDaemonStarted: %v", err)
	}
	if got.title != "Renamer - Started" {
		t.Errorf("title = %q", got.title)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
