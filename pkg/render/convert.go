package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoConverter is returned by [ToPDF] when rsvg-convert is not installed.
var ErrNoConverter = errors.New("rsvg-convert not found (install librsvg: brew install librsvg, apt install librsvg2-bin)")

// Converter is the rsvg-convert binary used for PDF output.
var Converter = "rsvg-convert"

// ToPDF converts an SVG document to a single-page PDF of the same size.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	bin, err := exec.LookPath(Converter)
	if err != nil {
		return nil, ErrNoConverter
	}

	cmd := exec.CommandContext(ctx, bin, "--format", "pdf", "--keep-aspect-ratio")
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rsvg-convert: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
