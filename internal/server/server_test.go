package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"sceneforge/internal/assets"
	"sceneforge/internal/export"
	"sceneforge/internal/jobs"
	"sceneforge/internal/services"
	"sceneforge/internal/services/replicate"
	"sceneforge/internal/storyboard"
	"sceneforge/internal/testsupport"
)

type stubImages struct {
	fn func(input replicate.ImageInput) (string, error)
}

func (s *stubImages) GenerateImage(_ context.Context, input replicate.ImageInput) (string, error) {
	if s.fn != nil {
		return s.fn(input)
	}
	data := base64.StdEncoding.EncodeToString([]byte("img:" + input.Prompt))
	return "data:image/webp;base64," + data, nil
}

type stubVideos struct {
	calls int
	fn    func(input replicate.VideoInput) (string, error)
}

func (s *stubVideos) GenerateVideo(_ context.Context, input replicate.VideoInput) (string, error) {
	s.calls++
	if s.fn != nil {
		return s.fn(input)
	}
	return "https://cdn.example/clip.mp4", nil
}

type harness struct {
	srv     *Server
	ts      *httptest.Server
	tracker *jobs.Tracker
	images  *stubImages
	videos  *stubVideos
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t)
	tracker := jobs.NewTracker()
	images := &stubImages{}
	videos := &stubVideos{}
	fetcher := assets.NewFetcher()
	orch := storyboard.New(storyboard.Deps{
		Store:   store,
		Tracker: tracker,
		Images:  images,
		Videos:  videos,
		Fetcher: fetcher,
	})
	srv, err := New(Deps{
		Config:       cfg,
		Orchestrator: orch,
		Exporter:     export.New(fetcher, nil, nil, 2),
		Images:       images,
		Videos:       videos,
		Fetcher:      fetcher,
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return &harness{srv: srv, ts: ts, tracker: tracker, images: images, videos: videos}
}

func (h *harness) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(h.ts.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (h *harness) generateBoard(t *testing.T, script string) {
	t.Helper()
	resp := h.postJSON(t, "/api/project", map[string]string{"script": script})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("project generation returned %d", resp.StatusCode)
	}
}

func TestGenerateImageShimRequiresPrompt(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/generate-image", map[string]string{"prompt": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Error != "Prompt is required" {
		t.Fatalf("unexpected error message %q", body.Error)
	}
}

func TestGenerateImageShimReturnsInlineImage(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/generate-image", map[string]string{"prompt": "a lighthouse"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		ImageURL    string `json:"imageUrl"`
		OriginalURL string `json:"originalUrl"`
	}
	decodeBody(t, resp, &body)
	if !assets.IsInline(body.ImageURL) {
		t.Fatalf("expected inline data URI, got %q", body.ImageURL)
	}
	if body.OriginalURL != "" {
		t.Fatalf("inline result should not carry an original URL, got %q", body.OriginalURL)
	}
}

func TestGenerateImageShimMissingTokenIs500(t *testing.T) {
	h := newHarness(t)
	h.images.fn = func(replicate.ImageInput) (string, error) {
		return "", services.Wrap(services.ErrConfiguration, "replicate", "generate image",
			"API token is not configured (set REPLICATE_API_TOKEN)", nil)
	}
	resp := h.postJSON(t, "/generate-image", map[string]string{"prompt": "a lighthouse"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestAnimateShimRequiresPromptAndFrame(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/animate-scene", map[string]string{"prompt": "pan"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAnimateShimRejectsNonImageFrame(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/animate-scene", map[string]string{
		"prompt":            "pan",
		"first_frame_image": "data:text/plain;base64,aGVsbG8=",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if h.videos.calls != 0 {
		t.Fatal("video service must not be reached")
	}
}

func TestAnimateShimReturnsVideoURL(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/animate-scene", map[string]any{
		"prompt":            "pan",
		"first_frame_image": "data:image/webp;base64,aGVsbG8=",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		VideoURL string `json:"videoUrl"`
	}
	decodeBody(t, resp, &body)
	if body.VideoURL != "https://cdn.example/clip.mp4" {
		t.Fatalf("unexpected video URL %q", body.VideoURL)
	}
}

func TestProjectLifecycle(t *testing.T) {
	h := newHarness(t)
	h.generateBoard(t, "first line\nsecond line")

	resp, err := http.Get(h.ts.URL + "/api/scenes")
	if err != nil {
		t.Fatalf("GET scenes: %v", err)
	}
	var listed struct {
		Scenes []struct {
			ID       int64  `json:"id"`
			Text     string `json:"text"`
			ImageURL string `json:"imageUrl"`
		} `json:"scenes"`
	}
	decodeBody(t, resp, &listed)
	if len(listed.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(listed.Scenes))
	}
	if listed.Scenes[0].Text != "first line" || listed.Scenes[1].ID != 2 {
		t.Fatalf("unexpected scenes: %+v", listed.Scenes)
	}

	req, _ := http.NewRequest(http.MethodDelete, h.ts.URL+"/api/project", nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE project: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delResp.StatusCode)
	}

	resp, err = http.Get(h.ts.URL + "/api/scenes")
	if err != nil {
		t.Fatalf("GET scenes: %v", err)
	}
	decodeBody(t, resp, &listed)
	if len(listed.Scenes) != 0 {
		t.Fatalf("expected empty storyboard, got %d scenes", len(listed.Scenes))
	}
}

func TestRegenerateBusyReturnsConflict(t *testing.T) {
	h := newHarness(t)
	h.generateBoard(t, "one line")
	if !h.tracker.TryAcquire(jobs.KindRegenerate, 1) {
		t.Fatal("failed to acquire tracker for setup")
	}

	resp := h.postJSON(t, "/api/scenes/1/regenerate", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSceneNotFoundIs404(t *testing.T) {
	h := newHarness(t)
	resp := h.postJSON(t, "/api/scenes/99/animate", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestExportAllServesArchive(t *testing.T) {
	h := newHarness(t)
	h.generateBoard(t, "one\ntwo")

	resp, err := http.Get(h.ts.URL + "/api/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "application/zip" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := resp.Header.Get("Content-Disposition"); got != `attachment; filename="scenes.zip"` {
		t.Fatalf("unexpected disposition %q", got)
	}
}

func TestAPIAuthEnforced(t *testing.T) {
	h := newHarness(t, testsupport.WithAPIToken("secret"))

	resp, err := http.Get(h.ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status with token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestStatusReportsCounts(t *testing.T) {
	h := newHarness(t)
	h.generateBoard(t, "one\ntwo\nthree")

	resp, err := http.Get(h.ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	var status struct {
		Running     bool `json:"running"`
		TotalScenes int  `json:"totalScenes"`
		Params      struct {
			Style string `json:"style"`
		} `json:"params"`
	}
	decodeBody(t, resp, &status)
	if !status.Running || status.TotalScenes != 3 {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.Params.Style != "cinematic" {
		t.Fatalf("unexpected default style %q", status.Params.Style)
	}
}

func TestStatusForErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		expect int
	}{
		{services.Wrap(services.ErrValidation, "x", "y", "bad", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrNotFound, "x", "y", "gone", nil), http.StatusNotFound},
		{services.Wrap(services.ErrConflict, "x", "y", "busy", nil), http.StatusConflict},
		{services.Wrap(services.ErrConfiguration, "x", "y", "token", nil), http.StatusInternalServerError},
		{services.Wrap(services.ErrCollaborator, "x", "y", "down", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for i, tc := range cases {
		if got := statusForError(tc.err); got != tc.expect {
			t.Errorf("case %d: got %d, want %d (%v)", i, got, tc.expect, tc.err)
		}
	}
}

func TestParamsRoundTrip(t *testing.T) {
	h := newHarness(t)

	body, _ := json.Marshal(map[string]string{
		"style":       "artistic",
		"aspectRatio": "9:16",
		"quality":     "standard",
	})
	req, _ := http.NewRequest(http.MethodPut, h.ts.URL+"/api/params", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT params: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	getResp, err := http.Get(h.ts.URL + "/api/params")
	if err != nil {
		t.Fatalf("GET params: %v", err)
	}
	var params struct {
		Style       string `json:"style"`
		AspectRatio string `json:"aspectRatio"`
		Quality     string `json:"quality"`
	}
	decodeBody(t, getResp, &params)
	if params.Style != "artistic" || params.AspectRatio != "9:16" || params.Quality != "standard" {
		t.Fatalf("unexpected params: %+v", params)
	}

	badBody, _ := json.Marshal(map[string]string{"style": "vaporwave", "aspectRatio": "16:9", "quality": "high"})
	badReq, _ := http.NewRequest(http.MethodPut, h.ts.URL+"/api/params", bytes.NewReader(badBody))
	badResp, err := http.DefaultClient.Do(badReq)
	if err != nil {
		t.Fatalf("PUT bad params: %v", err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown style, got %d", badResp.StatusCode)
	}
}

func TestSceneExportServesAsset(t *testing.T) {
	h := newHarness(t)
	h.generateBoard(t, "one line")

	resp, err := http.Get(h.ts.URL + "/api/scenes/1/export")
	if err != nil {
		t.Fatalf("GET scene export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Disposition"); got != fmt.Sprintf("attachment; filename=%q", "scene-1.webp") {
		t.Fatalf("unexpected disposition %q", got)
	}
}
