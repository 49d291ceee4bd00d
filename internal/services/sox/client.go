package sox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Format describes the sample format of produced audio.
type Format struct {
	SampleRate int
	BitDepth   int
	Channels   int
}

// RadioMusicFormat is the format the Radio Music module firmware reads.
var RadioMusicFormat = Format{SampleRate: 44100, BitDepth: 16, Channels: 1}

// EncodeOptions tunes a concatenation run.
type EncodeOptions struct {
	Format    Format
	Crossfade time.Duration
}

// Client defines the encoder behaviour the assembly pipeline needs.
type Client interface {
	MeasureDurations(ctx context.Context, paths ...string) ([]time.Duration, error)
	EncodeConcat(ctx context.Context, inputs []string, outputPath string, opts EncodeOptions) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the sox command-line audio processor.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "sox"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// MeasureDurations returns the duration of each sound file.
func (c *CLI) MeasureDurations(ctx context.Context, paths ...string) ([]time.Duration, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	args := append([]string{"--info", "-D"}, paths...)
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	lines := strings.Fields(strings.TrimSpace(out))
	if len(lines) != len(paths) {
		return nil, fmt.Errorf("sox --info returned %d durations for %d files", len(lines), len(paths))
	}
	durations := make([]time.Duration, 0, len(lines))
	for _, line := range lines {
		seconds, parseErr := strconv.ParseFloat(line, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("parse sox duration %q: %w", line, parseErr)
		}
		durations = append(durations, time.Duration(seconds*float64(time.Second)))
	}
	return durations, nil
}

// EncodeConcat converts every input to the requested format and splices the
// results into one stream at outputPath. Input order is the listening order.
func (c *CLI) EncodeConcat(ctx context.Context, inputs []string, outputPath string, opts EncodeOptions) error {
	if len(inputs) == 0 {
		return errors.New("at least one input required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	format := opts.Format
	if format.SampleRate == 0 {
		format = RadioMusicFormat
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".sox-work-")
	if err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	staged := make([]string, 0, len(inputs))
	for index, input := range inputs {
		stagedPath := filepath.Join(workDir, fmt.Sprintf("%03d.wav", index))
		if err := c.convert(ctx, input, stagedPath, format); err != nil {
			return err
		}
		staged = append(staged, stagedPath)
	}
	return c.join(ctx, staged, outputPath, opts.Crossfade)
}

// convert resamples one file and trims silence from both ends.
func (c *CLI) convert(ctx context.Context, inputPath, outputPath string, format Format) error {
	args := []string{
		inputPath,
		"-G",
		"-b", strconv.Itoa(format.BitDepth),
		outputPath,
		"channels", strconv.Itoa(format.Channels),
		"rate", "-s", "-a", strconv.Itoa(format.SampleRate),
		"reverse",
		"silence", "1", "5", "0",
		"reverse",
		"silence", "1", "5", "0",
	}
	_, err := c.run(ctx, args...)
	return err
}

// join splices the inputs together with a short crossfade at each boundary,
// then normalizes and dithers the result.
func (c *CLI) join(ctx context.Context, inputs []string, outputPath string, crossfade time.Duration) error {
	if len(inputs) == 1 {
		_, err := c.run(ctx, inputs[0], outputPath, "norm", "dither", "-s")
		return err
	}

	durations, err := c.MeasureDurations(ctx, inputs...)
	if err != nil {
		return err
	}

	args := append([]string{}, inputs...)
	args = append(args, outputPath, "splice", "-q")
	args = append(args, splicePositions(durations, crossfade)...)
	args = append(args, "norm", "dither", "-s")
	_, err = c.run(ctx, args...)
	return err
}

// splicePositions computes the sox splice arguments for joining the measured
// inputs in order. Each seam sits at an input boundary in the stream as it
// stands when that splice runs: every earlier splice has already consumed the
// half-crossfade excess, so seam i is pulled back by excess*i.
func splicePositions(durations []time.Duration, crossfade time.Duration) []string {
	excess := crossfade.Seconds() / 2
	seams := make([]float64, len(durations)-1)
	for index := range seams {
		if index == 0 {
			seams[0] = durations[0].Seconds()
			continue
		}
		seams[index] = seams[index-1] + durations[index].Seconds() - excess*float64(index)
	}
	args := make([]string, len(seams))
	for index, position := range seams {
		args[index] = fmt.Sprintf("%s,%s", formatSeconds(position), formatSeconds(excess))
	}
	return args
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := commandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("sox %s: %s (exit code %d)", args[0], strings.TrimSpace(stderr.String()), exitErr.ExitCode())
		}
		return "", fmt.Errorf("run sox: %w", err)
	}
	return stdout.String(), nil
}

var _ Client = (*CLI)(nil)
