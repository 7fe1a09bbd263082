package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// CommandRunner runs an external tool and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()
	return buf.Bytes(), err
}

type Concatenator struct {
	ffmpeg  string
	ffprobe string
	run     CommandRunner
}

func NewConcatenator(ffmpegBin, ffprobeBin string, run CommandRunner) *Concatenator {
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	if ffprobeBin == "" {
		ffprobeBin = "ffprobe"
	}
	if run == nil {
		run = ExecRunner
	}
	return &Concatenator{ffmpeg: ffmpegBin, ffprobe: ffprobeBin, run: run}
}

type clipInfo struct {
	width, height int
	audio         bool
}

func (c *Concatenator) Concatenate(ctx context.Context, clips []string, output string, method domain.ConcatMethod) error {
	if method == "" {
		method = domain.ConcatCompose
	}
	if method != domain.ConcatCompose && method != domain.ConcatReduce {
		return domain.WrapError(domain.ErrInvalidArgument, "concatenate video", fmt.Errorf("unknown method %q", method))
	}
	if len(clips) == 0 {
		return domain.WrapError(domain.ErrInvalidArgument, "concatenate video", errors.New("no clips"))
	}
	if output == "" {
		return domain.WrapError(domain.ErrInvalidArgument, "concatenate video", errors.New("output path is required"))
	}

	infos := make([]clipInfo, 0, len(clips))
	for _, clip := range clips {
		if _, err := os.Stat(clip); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return domain.WrapError(domain.ErrNotFound, "concatenate video", err)
			}
			return fmt.Errorf("concatenate video: %w", err)
		}
		info, err := c.probe(ctx, clip)
		if err != nil {
			return err
		}
		infos = append(infos, info)
	}

	args := c.buildArgs(clips, infos, output, method)
	slog.Debug("video_concat_started", "clips", len(clips), "method", string(method), "output", output)
	if out, err := c.run(ctx, c.ffmpeg, args...); err != nil {
		_ = os.Remove(output)
		return domain.WrapError(domain.ErrExternal, "concatenate video", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}
	return nil
}

func (c *Concatenator) probe(ctx context.Context, clip string) (clipInfo, error) {
	out, err := c.run(ctx, c.ffprobe,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height",
		"-of", "csv=p=0",
		clip,
	)
	if err != nil {
		return clipInfo{}, domain.WrapError(domain.ErrExternal, "probe video", fmt.Errorf("%s: %w: %s", clip, err, strings.TrimSpace(string(out))))
	}

	var info clipInfo
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		switch fields[0] {
		case "video":
			if info.width > 0 || len(fields) < 3 {
				continue
			}
			w, errW := strconv.Atoi(fields[1])
			h, errH := strconv.Atoi(fields[2])
			if errW == nil && errH == nil {
				info.width, info.height = w, h
			}
		case "audio":
			info.audio = true
		}
	}
	if info.width <= 0 || info.height <= 0 {
		return clipInfo{}, domain.WrapError(domain.ErrInvalidInput, "probe video", fmt.Errorf("%s: no video stream", clip))
	}
	return info, nil
}

func (c *Concatenator) buildArgs(clips []string, infos []clipInfo, output string, method domain.ConcatMethod) []string {
	w, h := targetSize(infos, method)
	withAudio := true
	for _, info := range infos {
		withAudio = withAudio && info.audio
	}

	args := []string{"-y"}
	for _, clip := range clips {
		args = append(args, "-i", clip)
	}

	var filter strings.Builder
	for i := range clips {
		if method == domain.ConcatReduce {
			fmt.Fprintf(&filter, "[%d:v]scale=%d:%d,setsar=1[v%d];", i, w, h, i)
			continue
		}
		fmt.Fprintf(&filter, "[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1[v%d];", i, w, h, w, h, i)
	}
	for i := range clips {
		fmt.Fprintf(&filter, "[v%d]", i)
		if withAudio {
			fmt.Fprintf(&filter, "[%d:a]", i)
		}
	}
	audio := 0
	if withAudio {
		audio = 1
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=%d[outv]", len(clips), audio)
	if withAudio {
		filter.WriteString("[outa]")
	}

	args = append(args, "-filter_complex", filter.String(), "-map", "[outv]")
	if withAudio {
		args = append(args, "-map", "[outa]")
	}
	return append(args, output)
}

// targetSize is the largest frame for compose and the smallest for reduce.
// Dimensions are rounded down to even values for yuv420p encoders.
func targetSize(infos []clipInfo, method domain.ConcatMethod) (int, int) {
	w, h := infos[0].width, infos[0].height
	for _, info := range infos[1:] {
		if method == domain.ConcatReduce {
			w, h = min(w, info.width), min(h, info.height)
		} else {
			w, h = max(w, info.width), max(h, info.height)
		}
	}
	return max(2, w&^1), max(2, h&^1)
}
