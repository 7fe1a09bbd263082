package ffmpeg

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/docauto/internal/core/domain"
)

type fakeRunner struct {
	streams map[string]string
	calls   [][]string
	failOn  string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == f.failOn {
		return []byte("boom"), errors.New("exit status 1")
	}
	if name == "ffprobe" {
		return []byte(f.streams[args[len(args)-1]]), nil
	}
	return nil, nil
}

func clipFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	out := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("clip"), 0o644); err != nil {
			t.Fatalf("seed clip: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func filterOf(t *testing.T, call []string) string {
	t.Helper()
	for i, arg := range call {
		if arg == "-filter_complex" && i+1 < len(call) {
			return call[i+1]
		}
	}
	t.Fatalf("no filter in %v", call)
	return ""
}

func TestConcatenateComposePadsToLargest(t *testing.T) {
	clips := clipFiles(t, "a.mp4", "b.mp4")
	runner := &fakeRunner{streams: map[string]string{
		clips[0]: "video,1280,720\naudio\n",
		clips[1]: "video,1920,1080\naudio\n",
	}}

	err := NewConcatenator("", "", runner.run).Concatenate(context.Background(), clips, "out.mp4", "")
	if err != nil {
		t.Fatalf("Concatenate() error = %v", err)
	}
	last := runner.calls[len(runner.calls)-1]
	if last[0] != "ffmpeg" || last[len(last)-1] != "out.mp4" {
		t.Fatalf("unexpected ffmpeg call %v", last)
	}
	filter := filterOf(t, last)
	if !strings.Contains(filter, "pad=1920:1080") || !strings.Contains(filter, "concat=n=2:v=1:a=1[outv][outa]") {
		t.Fatalf("unexpected filter %q", filter)
	}
}

func TestConcatenateReduceScalesToSmallestWithoutAudio(t *testing.T) {
	clips := clipFiles(t, "a.mp4", "b.mp4")
	runner := &fakeRunner{streams: map[string]string{
		clips[0]: "video,1280,720\naudio\n",
		clips[1]: "video,641,481\n",
	}}

	err := NewConcatenator("", "", runner.run).Concatenate(context.Background(), clips, "out.mp4", domain.ConcatReduce)
	if err != nil {
		t.Fatalf("Concatenate() error = %v", err)
	}
	filter := filterOf(t, runner.calls[len(runner.calls)-1])
	if !strings.Contains(filter, "[0:v]scale=640:480,setsar=1[v0]") || !strings.Contains(filter, "a=0[outv]") {
		t.Fatalf("unexpected filter %q", filter)
	}
	if strings.Contains(filter, "[0:a]") {
		t.Fatalf("audio mapped although a clip has none: %q", filter)
	}
}

func TestConcatenateValidation(t *testing.T) {
	c := NewConcatenator("", "", (&fakeRunner{}).run)
	ctx := context.Background()

	if err := c.Concatenate(ctx, nil, "out.mp4", ""); !domain.IsKind(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for empty clips, got %v", err)
	}
	if err := c.Concatenate(ctx, []string{"a.mp4"}, "out.mp4", "stretch"); !domain.IsKind(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for method, got %v", err)
	}
	missing := filepath.Join(t.TempDir(), "missing.mp4")
	if err := c.Concatenate(ctx, []string{missing}, "out.mp4", ""); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcatenateReportsToolFailure(t *testing.T) {
	clips := clipFiles(t, "a.mp4")
	runner := &fakeRunner{streams: map[string]string{clips[0]: "video,320,240\n"}, failOn: "ffmpeg"}

	err := NewConcatenator("", "", runner.run).Concatenate(context.Background(), clips, filepath.Join(t.TempDir(), "out.mp4"), "")
	if !domain.IsKind(err, domain.ErrExternal) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected external error with tool output, got %v", err)
	}
}

func TestConcatenateRejectsClipWithoutVideo(t *testing.T) {
	clips := clipFiles(t, "a.mp3")
	runner := &fakeRunner{streams: map[string]string{clips[0]: "audio\n"}}

	err := NewConcatenator("", "", runner.run).Concatenate(context.Background(), clips, "out.mp4", "")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
