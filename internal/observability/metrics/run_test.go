package metrics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/docauto/internal/core/domain"
)

func TestWriteTextfileContainsRunCounters(t *testing.T) {
	m := NewRunMetrics("docauto")
	m.ObserveStage("assemble", domain.StateNormalizing, 120*time.Millisecond)
	m.AddPages(3)
	m.AddPages(0)
	m.FinishRun("assemble", time.Second, nil)
	m.FinishRun("assemble", time.Second, domain.WrapError(domain.ErrAlreadyExists, "assemble", errors.New("out.pdf")))

	path := filepath.Join(t.TempDir(), "docauto.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`docauto_run_total{operation="assemble",service="docauto",status="success"} 1`,
		`docauto_run_total{operation="assemble",service="docauto",status="already_exists"} 1`,
		`docauto_assemble_pages_total{service="docauto"} 3`,
		`docauto_run_stage_duration_seconds_count{operation="assemble",service="docauto",state="normalizing"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{fmt.Errorf("run: %w", context.Canceled), "cancelled"},
		{domain.WrapError(domain.ErrNotFound, "op", errors.New("x")), "not_found"},
		{domain.WrapError(domain.ErrNotAZip, "op", errors.New("x")), "invalid_input"},
		{domain.WrapError(domain.ErrExternal, "op", errors.New("x")), "external"},
		{errors.New("plain"), "error"},
	}
	for _, tc := range cases {
		if got := Status(tc.err); got != tc.want {
			t.Fatalf("Status(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
