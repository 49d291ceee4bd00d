package assembly

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"radiobank/internal/catalog"
	"radiobank/internal/logging"
	"radiobank/internal/services"
	"radiobank/internal/services/sox"
)

// Assembler turns a station's ordered clip sequence into one playable audio
// file at the bank/station path.
type Assembler struct {
	resolver   catalog.Resolver
	encoder    sox.Client
	stagingDir string
	outputRoot string
	opts       sox.EncodeOptions
	logger     *slog.Logger
}

// New constructs an Assembler writing under outputRoot.
func New(resolver catalog.Resolver, encoder sox.Client, stagingDir, outputRoot string, opts sox.EncodeOptions, logger *slog.Logger) *Assembler {
	return &Assembler{
		resolver:   resolver,
		encoder:    encoder,
		stagingDir: stagingDir,
		outputRoot: outputRoot,
		opts:       opts,
		logger:     logging.WithComponent(logger, "assembler"),
	}
}

// Assemble downloads the clips in order and drives the encoder to produce the
// station file. Clip payloads are resolved lazily here, not at selection
// time; sources may have vanished since catalog load.
func (a *Assembler) Assemble(ctx context.Context, bank, station int, clips []catalog.Clip) (string, error) {
	staging, err := os.MkdirTemp(a.stagingDir, fmt.Sprintf("bank%02d-station%02d-", bank, station))
	if err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	inputs := make([]string, 0, len(clips))
	for index, clip := range clips {
		path, err := a.downloadClip(ctx, staging, index, clip)
		if err != nil {
			return "", err
		}
		inputs = append(inputs, path)
	}

	finalPath := StationPath(a.outputRoot, bank, station)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", fmt.Errorf("create bank directory: %w", err)
	}

	// Encode next to the destination and rename, so the module never sees a
	// half-written station file.
	partialPath := filepath.Join(filepath.Dir(finalPath), fmt.Sprintf("%02d.partial.wav", station))
	if err := a.encoder.EncodeConcat(ctx, inputs, partialPath, a.opts); err != nil {
		_ = os.Remove(partialPath)
		return "", services.Wrap(services.ErrEncodingFailed, "assembler", "concat", err)
	}
	if err := os.Rename(partialPath, finalPath); err != nil {
		_ = os.Remove(partialPath)
		return "", services.Wrap(services.ErrEncodingFailed, "assembler", "publish", err)
	}

	a.logger.Debug("station assembled",
		logging.Int(logging.FieldBank, bank),
		logging.Int(logging.FieldStation, station),
		logging.Int("clips", len(clips)),
		logging.String("path", finalPath))
	return finalPath, nil
}

func (a *Assembler) downloadClip(ctx context.Context, staging string, index int, clip catalog.Clip) (string, error) {
	payload, err := a.resolver.Resolve(ctx, clip.PayloadRef)
	if err != nil {
		return "", services.Wrap(services.ErrClipUnavailable, "assembler", clip.ID, err)
	}
	defer payload.Close()

	path := filepath.Join(staging, fmt.Sprintf("%03d%s", index, payloadExt(clip.PayloadRef)))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, payload); err != nil {
		return "", services.Wrap(services.ErrClipUnavailable, "assembler", clip.ID, err)
	}
	return path, nil
}

// payloadExt keeps the payload's extension so the encoder can sniff the
// container format; unknown payloads default to mp3, the dominant catalog
// format.
func payloadExt(payloadRef string) string {
	if ext := filepath.Ext(payloadRef); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".mp3"
}

// StationPath returns the deterministic output location for a station.
// Indices are zero-padded so the module reads banks and stations in
// positional order.
func StationPath(root string, bank, station int) string {
	return filepath.Join(root, fmt.Sprintf("%02d", bank), fmt.Sprintf("%02d.wav", station))
}
