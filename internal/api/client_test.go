package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func writeTestJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClientSendsTokenAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			writeTestJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		switch r.URL.Path {
		case "/api/jobs":
			writeTestJSON(w, http.StatusOK, JobListResponse{Jobs: []JobView{{ID: 1, Name: "a.mkv", State: "idle"}}})
		case "/api/jobs/1":
			writeTestJSON(w, http.StatusOK, JobResponse{Job: JobView{ID: 1, Name: "a.mkv"}})
		default:
			writeTestJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found", Kind: "not_found"})
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret")
	list, err := client.Jobs(context.Background())
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Name != "a.mkv" {
		t.Fatalf("jobs = %+v", list)
	}
	job, err := client.Job(context.Background(), 1)
	if err != nil || job.Job.ID != 1 {
		t.Fatalf("job = %+v, %v", job, err)
	}

	_, err = client.Job(context.Background(), 2)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Kind != "not_found" {
		t.Fatalf("err = %#v", err)
	}

	_, err = NewClient(srv.URL, "wrong").Jobs(context.Background())
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("unauthorized err = %#v", err)
	}
}

func TestClientSubmitMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeTestJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeTestJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		writeTestJSON(w, http.StatusAccepted, SubmitResponse{
			Job:      JobView{ID: 4, Source: r.FormValue("mov")},
			Subtitle: UploadView{Name: header.Filename, Bytes: len(data)},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "").Submit(context.Background(), "Shows/ep01.mkv", "ep01.srt", strings.NewReader("subtitle body"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Job.Source != "Shows/ep01.mkv" || resp.Subtitle.Name != "ep01.srt" || resp.Subtitle.Bytes != 13 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestClientDirEscapesPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeTestJSON(w, http.StatusOK, DirListing{Path: "My Shows"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "").Dir(context.Background(), "/My Shows/"); err != nil {
		t.Fatalf("dir: %v", err)
	}
	if gotPath != "/api/dir/My%20Shows" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestClientTaskLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "a.mkv: [OK] 100%\nb.mkv: [running] 40%\n")
	}))
	defer srv.Close()

	lines, err := NewClient(srv.URL, "").TaskLines(context.Background())
	if err != nil {
		t.Fatalf("task lines: %v", err)
	}
	if len(lines) != 2 || lines[1] != "b.mkv: [running] 40%" {
		t.Fatalf("lines = %q", lines)
	}
}

func TestBaseURLFromBind(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:7488": "http://127.0.0.1:7488",
		"0.0.0.0:8080":   "http://127.0.0.1:8080",
		":9000":          "http://127.0.0.1:9000",
		"[::]:7488":      "http://127.0.0.1:7488",
		"media.lan:80":   "http://media.lan:80",
	}
	for bind, want := range tests {
		if got := BaseURLFromBind(bind); got != want {
			t.Errorf("BaseURLFromBind(%q) = %q, want %q", bind, got, want)
		}
	}
}
