package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"contentgen/internal/domain"
	"contentgen/internal/providers/textgen"
	"contentgen/internal/providers/wavespeed"
	"contentgen/internal/storage"
)

// fakeWavespeed serves submit, poll and download endpoints. Every job
// reports "processing" once before completing.
type fakeWavespeed struct {
	mu     sync.Mutex
	seq    int
	polls  map[string]int
	videos []map[string]any
	srv    *httptest.Server
}

func newFakeWavespeed(t *testing.T) *fakeWavespeed {
	f := &fakeWavespeed{polls: map[string]int{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /bytedance/seedream-v3", func(w http.ResponseWriter, r *http.Request) {
		f.created(w, "img")
	})
	mux.HandleFunc("POST /wavespeed-ai/wan-2.2/t2v-480p-ultra-fast", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		f.mu.Lock()
		f.videos = append(f.videos, body)
		f.mu.Unlock()
		f.created(w, "vid")
	})
	mux.HandleFunc("GET /predictions/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		f.mu.Lock()
		f.polls[id]++
		n := f.polls[id]
		f.mu.Unlock()
		status, outputs := "processing", []string{}
		if n > 1 {
			status = "completed"
			ext := ".jpg"
			if strings.HasPrefix(id, "vid") {
				ext = ".mp4"
			}
			outputs = []string{f.srv.URL + "/files/" + id + ext}
		}
		writeJSON(w, map[string]any{"code": 200, "data": map[string]any{"id": id, "status": status, "outputs": outputs}})
	})
	mux.HandleFunc("GET /files/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeWavespeed) created(w http.ResponseWriter, prefix string) {
	f.mu.Lock()
	f.seq++
	id := fmt.Sprintf("%s-%d", prefix, f.seq)
	f.mu.Unlock()
	writeJSON(w, map[string]any{"code": 200, "data": map[string]any{"id": id, "status": "created"}})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func readFile(t *testing.T, parts ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(parts...))
	if err != nil {
		t.Fatalf("read %s: %v", filepath.Join(parts...), err)
	}
	return string(data)
}

func TestGenerateShortPackageEndToEnd(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewFileStore(root)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	ws := newFakeWavespeed(t)
	media := wavespeed.NewClient(wavespeed.Options{APIKey: "ws-test", BaseURL: ws.srv.URL, Writer: store})
	text := scriptedShort()
	o := newTestOrchestrator(t, text, media, store, testSettings())

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "Ada Lovelace")
	if err != nil {
		t.Fatalf("GenerateShortPackage returned error: %v", err)
	}
	if !res.OverallSuccess || res.Aborted || res.Stage != StageDone {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Assets) != 4 {
		t.Fatalf("assets = %d, want 4", len(res.Assets))
	}
	for _, name := range []string{"image_1", "image_2", "video", "thumbnail"} {
		if got := res.StatusMap()[name]; got != domain.AssetSuccess {
			t.Fatalf("asset %s status = %q", name, got)
		}
	}

	dir := filepath.Join(root, "Ada Lovelace", "short video")
	if script := readFile(t, dir, "script.txt"); !strings.HasPrefix(script, "Script for Ada Lovelace\n"+headerRule+"\n\n") {
		t.Fatalf("script header = %q", script[:min(len(script), 80)])
	}
	for _, f := range []string{"complete_response.txt", "description.txt", "image_1.jpg", "image_1_url.txt", "image_2.jpg", "thumbnail.jpg"} {
		readFile(t, dir, f)
	}

	name := regexp.MustCompile(`(?i)ada\s+lovelace`)
	for _, f := range []string{"image_prompt_1.txt", "image_prompt_2.txt", "video_prompt.txt"} {
		if p := readFile(t, dir, f); name.MatchString(p) || strings.TrimSpace(p) == "" {
			t.Fatalf("%s = %q, want non-empty prompt without the subject name", f, p)
		}
	}
	if p := readFile(t, dir, "image_prompt_2.txt"); strings.Contains(p, "1843") {
		t.Fatalf("year survived sanitization: %q", p)
	}
	if p := readFile(t, dir, "video_prompt.txt"); strings.Contains(p, "[duration") || strings.Contains(p, "APPEARS_AT") {
		t.Fatalf("tags survived in video prompt: %q", p)
	}
	if p := readFile(t, dir, "thumbnail_prompt.txt"); !strings.Contains(p, "Ada Lovelace") {
		t.Fatalf("thumbnail prompt should keep the name: %q", p)
	}
	if u := readFile(t, dir, "video_url.txt"); !strings.HasSuffix(strings.TrimSpace(u), ".mp4") {
		t.Fatalf("video_url.txt = %q", u)
	}
	if len(ws.videos) != 1 || ws.videos[0]["aspect_ratio"] != "9:16" || ws.videos[0]["duration"] != float64(5) {
		t.Fatalf("video payloads = %v", ws.videos)
	}
	if got := text.maxTokensFor(systemShort); len(got) != 1 || got[0] != shortPackageMaxTokens {
		t.Fatalf("short max tokens = %v", got)
	}
}

func TestGenerateShortPackageIsolatesSubmissionFailure(t *testing.T) {
	store := newMemStore()
	media := &fakeMedia{writer: store, failSubmit: func(prompt string) error {
		if strings.Contains(prompt, "Victorian") {
			return &domain.JobError{Kind: domain.ErrSubmission, Op: "fake submit", StatusCode: 503}
		}
		return nil
	}}
	o := newTestOrchestrator(t, scriptedShort(), media, store, testSettings())

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "ada")
	if err != nil {
		t.Fatalf("GenerateShortPackage returned error: %v", err)
	}
	if len(res.Assets) != 4 || res.Succeeded() != 3 {
		t.Fatalf("assets = %d succeeded = %d, want 4 and 3", len(res.Assets), res.Succeeded())
	}
	failed := assetByName(t, res, "image_2")
	if failed.Status != domain.AssetFailure || failed.ErrorKind != "submission" {
		t.Fatalf("image_2 = %+v", failed)
	}
	if res.OverallSuccess || res.Aborted {
		t.Fatalf("partial package must not succeed or abort: %+v", res)
	}
	if _, ok := store.get("ada/short video/image_1.jpg"); !ok {
		t.Fatalf("sibling image should still be persisted")
	}
	if _, ok := store.get("ada/short video/image_prompt_2.txt"); !ok {
		t.Fatalf("failed asset keeps its persisted prompt")
	}
}

func TestGenerateShortPackageMissingTagAndEmptyPrompt(t *testing.T) {
	text := newScriptedText()
	text.reply(systemShort, "[SCRIPT]\nA script.\n[IMAGE_PROMPT_1]\nAda Lovelace\n[VIDEO_PROMPT]\nGears turning slowly")
	text.on(systemThumbnail, func(textgen.Request) (string, error) { return "", errBoom })
	store := newMemStore()
	o := newTestOrchestrator(t, text, &fakeMedia{writer: store}, store, testSettings())

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "ada")
	if err != nil {
		t.Fatalf("GenerateShortPackage returned error: %v", err)
	}
	want := map[string]string{
		"image_1":   "validation",
		"image_2":   "validation",
		"video":     "",
		"thumbnail": "unknown",
	}
	for name, kind := range want {
		a := assetByName(t, res, name)
		if a.ErrorKind != kind {
			t.Fatalf("%s error kind = %q, want %q (%s)", name, a.ErrorKind, kind, a.Error)
		}
	}
	if res.Succeeded() != 1 {
		t.Fatalf("succeeded = %d, want 1", res.Succeeded())
	}
}

func TestGenerateShortPackageAbortsOnMainFailure(t *testing.T) {
	text := newScriptedText()
	text.on(systemShort, func(textgen.Request) (string, error) {
		return "", &domain.JobError{Kind: domain.ErrGeneration, Op: "fake", Detail: "rate limited"}
	})
	media := &fakeMedia{}
	o := newTestOrchestrator(t, text, media, newMemStore(), testSettings())

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "ada")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Fatalf("err = %v, want generation", err)
	}
	if !res.Aborted || res.OverallSuccess || len(res.Assets) != 0 || res.Stage != StageInit {
		t.Fatalf("unexpected aborted result: %+v", res)
	}
	if media.count() != 0 {
		t.Fatalf("no media should be submitted after abort")
	}
}

func TestGenerateShortPackageWithoutMediaRendering(t *testing.T) {
	store := newMemStore()
	settings := testSettings()
	settings.RenderMedia = false
	o := newTestOrchestrator(t, scriptedShort(), nil, store, settings)

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "ada")
	if err != nil {
		t.Fatalf("GenerateShortPackage returned error: %v", err)
	}
	if !res.OverallSuccess || res.Stage != StageDone {
		t.Fatalf("unexpected result: %+v", res)
	}
	for _, a := range res.Assets {
		if a.PromptPath == "" || a.MediaPath != "" {
			t.Fatalf("asset %s = %+v", a.Name, a)
		}
	}
}

func TestGenerateShortPackageKeepsStageDirectionsInScript(t *testing.T) {
	text := newScriptedText()
	text.reply(systemShort, strings.Replace(adaShortReply,
		"Would you have believed her?",
		"[PAUSE] Would you have believed her? [MUSIC]", 1))
	text.reply(systemThumbnail, "Bold title text over a glowing engine")
	store := newMemStore()
	settings := testSettings()
	settings.RenderMedia = false
	o := newTestOrchestrator(t, text, nil, store, settings)

	res, err := o.GenerateShortPackage(context.Background(), "Ada Lovelace", adaSource, "ada")
	if err != nil {
		t.Fatalf("GenerateShortPackage returned error: %v", err)
	}
	if !res.OverallSuccess {
		t.Fatalf("unexpected result: %+v", res)
	}
	script, ok := store.get("ada/short video/script.txt")
	if !ok {
		t.Fatalf("script.txt not written")
	}
	if !strings.Contains(script, "[PAUSE] Would you have believed her? [MUSIC]") || !strings.Contains(script, "Tell us in the comments.") {
		t.Fatalf("script body was cut at a stage direction: %q", script)
	}
}
