package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/codemap/pkg/config"
	"github.com/matzehuels/codemap/pkg/errors"
	"github.com/matzehuels/codemap/pkg/graph"
	"github.com/matzehuels/codemap/pkg/render"
	"github.com/matzehuels/codemap/pkg/route"
	"github.com/matzehuels/codemap/pkg/viewport"
)

const (
	formatSVG   = "svg"
	formatPNG   = "png"
	formatPDF   = "pdf"
	formatDOT   = "dot"
	formatNeato = "neato" // SVG drawn by Graphviz from the DOT export
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file path (or base path for multiple outputs)
	formats []string // output formats
	scale   float64  // zoom scale; below the viewport threshold containers collapse
	padding float64  // margin around the drawing in pixels
	title   string
}

// renderCommand creates the render command for drawing a laid-out graph.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: 1, padding: render.DefaultOptions().Padding}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Render a laid-out graph to SVG, PNG, PDF or DOT",
		Long: `Render a laid-out graph (the output of 'layout') to image files.

--scale is the zoom level the map is drawn at. Below the configured
threshold (0.3 by default) containers collapse into labelled boxes and
their contents are hidden, exactly as in an interactive panel.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.scale <= 0 {
				return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %g (must be positive)", opts.scale)
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, neato (comma-separated)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "zoom scale; picks the detail level")
	cmd.Flags().Float64Var(&opts.padding, "padding", opts.padding, "margin around the drawing")
	cmd.Flags().StringVar(&opts.title, "title", "", "document title (default: input file name)")

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{formatSVG}
	}
	return strings.Split(s, ",")
}

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{formatSVG: true, formatPNG: true, formatPDF: true, formatDOT: true, formatNeato: true}

// validateFormats returns an error if any format is not in validFormats.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'svg', 'png', 'pdf', 'dot' or 'neato')", f)
		}
	}
	return nil
}

// basePath derives the base output path. With no output it strips the
// extension from input; a known format extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath names the file for one format.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	base := basePath(output, input)
	if format == formatNeato {
		return base + ".neato.svg"
	}
	return base + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	u, err := graph.ReadUpdateFile(input)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "load layout %s", input)
	}
	g, _ := u.Build()
	if opts.title == "" {
		opts.title = filepath.Base(input)
	}
	scene := prepareScene(g, cfg, opts)
	c.Logger.Debug("prepared scene", "nodes", g.Len(), "connectors", len(scene.Connectors), "scale", opts.scale)

	for _, format := range opts.formats {
		data, err := renderFormat(ctx, g, scene, format, opts)
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		path := outputPath(opts.output, input, format, len(opts.formats) == 1)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debugf("Generated %s: %d bytes", format, len(data))
		printFile(path)
	}
	printSuccess("Rendered %s", input)
	return nil
}

// prepareScene applies the detail level of opts.scale and routes the
// connectors, the same steps a panel runs before every frame.
func prepareScene(g *graph.Graph, cfg *config.Config, opts renderOpts) render.Scene {
	view := viewport.New(cfg.Server.Width, cfg.Server.Height, cfg.Viewport)
	view.SetTransform(viewport.Transform{K: opts.scale})
	view.Apply(g)
	return render.Scene{
		Nodes:      g.Nodes,
		Connectors: route.RouteAll(g, cfg.Routing),
		Title:      opts.title,
	}
}

func renderFormat(ctx context.Context, g *graph.Graph, scene render.Scene, format string, opts renderOpts) ([]byte, error) {
	ro := render.Options{Scale: opts.scale, Padding: opts.padding}
	var buf bytes.Buffer
	switch format {
	case formatSVG, formatPDF:
		if err := render.SVG(&buf, scene, ro); err != nil {
			return nil, err
		}
		if format == formatPDF {
			return render.ToPDF(ctx, buf.Bytes())
		}
		return buf.Bytes(), nil
	case formatPNG:
		if err := render.PNG(&buf, scene, ro); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case formatDOT:
		return []byte(render.DOT(g)), nil
	case formatNeato:
		return render.GraphvizSVG(ctx, render.DOT(g))
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format)
}
