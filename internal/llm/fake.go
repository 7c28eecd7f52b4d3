package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeClient returns deterministic markdown per artifact for offline runs
// and tests. Errors registered with FailOn are returned instead.
type FakeClient struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []Request
}

func NewFakeClient() *FakeClient {
	return &FakeClient{fail: map[string]error{}}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// FailOn makes every request for artifact fail with err.
func (f *FakeClient) FailOn(artifact string, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[artifact] = err
	return f
}

// Calls returns a copy of the requests seen so far.
func (f *FakeClient) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}

func (f *FakeClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	err := f.fail[req.Artifact]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	title := req.Artifact
	if title == "" {
		title = "document"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", strings.ToUpper(title[:1])+title[1:])
	fmt.Fprintf(&b, "Offline %s draft at %s detail.\n\n", title, req.Detail)
	fmt.Fprintf(&b, "Prompt size: %d characters.\n", len(req.Prompt))
	return b.String(), nil
}
