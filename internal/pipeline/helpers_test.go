package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"contentgen/internal/domain"
	"contentgen/internal/prompt"
	"contentgen/internal/providers/textgen"
	"contentgen/internal/providers/wavespeed"
)

// scriptedText answers each call by its system prompt.
type scriptedText struct {
	mu      sync.Mutex
	replies map[string]func(req textgen.Request) (string, error)
	calls   []textgen.Request
}

func newScriptedText() *scriptedText {
	return &scriptedText{replies: map[string]func(textgen.Request) (string, error){}}
}

func (s *scriptedText) on(system string, fn func(req textgen.Request) (string, error)) {
	s.replies[system] = fn
}

func (s *scriptedText) reply(system, text string) {
	s.on(system, func(textgen.Request) (string, error) { return text, nil })
}

func (s *scriptedText) Generate(_ context.Context, req textgen.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	fn := s.replies[req.System]
	s.mu.Unlock()
	if fn == nil {
		return "", &domain.JobError{Kind: domain.ErrGeneration, Op: "fake", Detail: "no reply for " + req.System}
	}
	return fn(req)
}

func (s *scriptedText) maxTokensFor(system string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, c := range s.calls {
		if c.System == system {
			out = append(out, c.MaxTokens)
		}
	}
	return out
}

// fakeMedia completes every job immediately unless a hook fails it.
type fakeMedia struct {
	mu         sync.Mutex
	submitted  []string
	failSubmit func(prompt string) error
	failAwait  func(job *domain.GenerationJob) error
	writer     Store
	seq        int
}

func (m *fakeMedia) submit(kind domain.JobKind, prompt string) (*domain.GenerationJob, error) {
	if m.failSubmit != nil {
		if err := m.failSubmit(prompt); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.submitted = append(m.submitted, prompt)
	return &domain.GenerationJob{
		ID:      fmt.Sprintf("job-%d", m.seq),
		Kind:    kind,
		Request: map[string]any{"prompt": prompt},
		Status:  domain.JobStatusQueued,
	}, nil
}

func (m *fakeMedia) SubmitImage(_ context.Context, req wavespeed.ImageRequest) (*domain.GenerationJob, error) {
	return m.submit(domain.JobKindImage, req.Prompt)
}

func (m *fakeMedia) SubmitVideo(_ context.Context, req wavespeed.VideoRequest) (*domain.GenerationJob, error) {
	return m.submit(domain.JobKindVideo, req.Prompt)
}

func (m *fakeMedia) AwaitCompletion(ctx context.Context, job *domain.GenerationJob, opts wavespeed.AwaitOptions) (*domain.MediaResult, error) {
	if m.failAwait != nil {
		if err := m.failAwait(job); err != nil {
			return nil, err
		}
	}
	res := &domain.MediaResult{RemoteURL: "https://cdn.example.com/" + job.ID}
	if opts.Dir != "" && m.writer != nil {
		p, err := m.writer.WriteFile(ctx, opts.Dir, opts.FileName, []byte("jpeg"))
		if err != nil {
			return nil, err
		}
		res.LocalPath = p
	}
	return res, nil
}

func (m *fakeMedia) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.submitted)
}

// memStore keeps files in memory keyed by dir/name.
type memStore struct {
	mu    sync.Mutex
	files map[string]string
	fail  func(dir, name string) error
}

func newMemStore() *memStore {
	return &memStore{files: map[string]string{}}
}

func (s *memStore) WriteFile(_ context.Context, dir, name string, data []byte) (string, error) {
	if s.fail != nil {
		if err := s.fail(dir, name); err != nil {
			return "", err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := path.Join(dir, name)
	s.files[key] = string(data)
	return key, nil
}

func (s *memStore) WriteText(ctx context.Context, dir, name, text string) (string, error) {
	return s.WriteFile(ctx, dir, name, []byte(text))
}

func (s *memStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.files[key]
	return v, ok
}

func testSettings() Settings {
	s := DefaultSettings()
	s.ImagePolicy = wavespeed.PollPolicy{Interval: time.Millisecond, MaxAttempts: 5}
	s.VideoPolicy = wavespeed.PollPolicy{Interval: time.Millisecond, MaxAttempts: 5}
	return s
}

func newTestOrchestrator(t *testing.T, text textgen.Generator, media MediaClient, store Store, settings Settings) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(Deps{
		Text:      text,
		Media:     media,
		Sanitizer: prompt.NewSanitizer(prompt.Options{}),
		Store:     store,
	}, settings)
	if err != nil {
		t.Fatalf("NewOrchestrator returned error: %v", err)
	}
	return o
}

const adaSource = "Augusta Ada King, Countess of Lovelace, was an English mathematician and writer. " +
	"She worked with Charles Babbage on the Analytical Engine and published the first algorithm intended for a machine."

const adaShortReply = `[SCRIPT]
What if the first programmer lived before computers existed? Ada Lovelace imagined machines that could compose music.
Would you have believed her? Tell us in the comments.

[DESCRIPTION]
The story of Ada Lovelace and the Analytical Engine. #history #math

[IMAGE_PROMPT_1]
Here is a detailed image prompt:
Create a portrait of Ada Lovelace at a writing desk covered in brass gears, soft candlelight
[APPEARS_AT: first programmer]

[IMAGE_PROMPT_2]
A Victorian drawing room in 1843 with an intricate mechanical calculating engine, cinematic lighting
[APPEARS_AT: Analytical Engine]

[VIDEO_PROMPT]
Slow dolly shot across handwritten notes by ADA LOVELACE beside spinning gears [duration:5] [aspect:9:16]
[APPEARS_AT: compose music]`

func scriptedShort() *scriptedText {
	text := newScriptedText()
	text.reply(systemShort, adaShortReply)
	text.reply(systemThumbnail, "Bold title text Ada Lovelace over a glowing mechanical engine")
	return text
}

func longScript(sections int) string {
	var b strings.Builder
	for i := 1; i <= sections; i++ {
		fmt.Fprintf(&b, "[SECTION %d] Chapter %d\nNarration for part %d about the engine.\n\n", i, i, i)
	}
	return b.String()
}

func scriptedLong(script string) *scriptedText {
	text := newScriptedText()
	text.reply(systemLong, script)
	text.reply(systemDescription, "A documentary about a mathematician. #history")
	text.on(systemImagePrompt, func(req textgen.Request) (string, error) {
		return "A still of " + firstLineOfSection(req.User), nil
	})
	text.on(systemVideoPrompt, func(req textgen.Request) (string, error) {
		return "A slow pan over " + firstLineOfSection(req.User), nil
	})
	return text
}

func firstLineOfSection(user string) string {
	_, section, _ := strings.Cut(user, "Section:\n")
	line, _, _ := strings.Cut(section, "\n")
	return line
}

func assetByName(t *testing.T, res domain.PackageResult, name string) domain.AssetOutcome {
	t.Helper()
	for _, a := range res.Assets {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("asset %q not found in %+v", name, res.Assets)
	return domain.AssetOutcome{}
}

var errBoom = errors.New("boom")
