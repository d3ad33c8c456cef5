package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"unicode/utf8"

	"clipper/internal/catalog"
	"clipper/internal/classify"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const DefaultGlamourStyle = "dark"

const maxPreviewBytes = 64 * 1024

// Title is the single line shown for an item in the list.
func Title(it catalog.Item, width int) string {
	var s string
	switch it.Category() {
	case classify.Image:
		s = "[image] " + ImageSummary(it.Data, it.Class.MIME)
	case classify.Text:
		s = strings.Join(strings.Fields(string(it.Data)), " ")
	default:
		s = strings.TrimSpace(it.Entry.Preview())
		if s == "" {
			s = fmt.Sprintf("%s, %s", mimeOr(it.Class.MIME, "binary"), HumanSize(len(it.Data)))
		}
	}
	if width > 0 {
		s = ansi.Truncate(s, width, "…")
	}
	return s
}

// Description is the secondary list line: id, category, size.
func Description(it catalog.Item) string {
	return fmt.Sprintf("#%s  %s  %s", it.Entry.ID(), it.Category(), HumanSize(len(it.Data)))
}

// ImageSummary describes an image payload without decoding its pixels.
func ImageSummary(data []byte, mime string) string {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Sprintf("%s, %s", mimeOr(mime, "image"), HumanSize(len(data)))
	}
	return fmt.Sprintf("%s %dx%d, %s", format, cfg.Width, cfg.Height, HumanSize(len(data)))
}

// Markdown builds the detail pane document for an item.
func Markdown(it catalog.Item) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Entry %s\n\n", it.Entry.ID()))
	b.WriteString(fmt.Sprintf("- Type: `%s`\n", mimeOr(it.Class.MIME, "unknown")))
	b.WriteString(fmt.Sprintf("- Size: %s\n", HumanSize(len(it.Data))))

	switch it.Category() {
	case classify.Image:
		b.WriteString("- Image: " + ImageSummary(it.Data, it.Class.MIME) + "\n")
		if it.StagedPath != "" {
			b.WriteString("- Staged at: `" + it.StagedPath + "`\n")
		}
	case classify.Text:
		body := string(it.Data)
		truncated := false
		if len(body) > maxPreviewBytes {
			body = body[:maxPreviewBytes]
			for !utf8.ValidString(body) && len(body) > 0 {
				body = body[:len(body)-1]
			}
			truncated = true
		}
		fence := "```"
		for strings.Contains(body, fence) {
			fence += "`"
		}
		b.WriteString("\n" + fence + "text\n" + strings.TrimRight(body, "\n") + "\n" + fence + "\n")
		if truncated {
			b.WriteString("\n_Preview truncated; copy the entry for the full text._\n")
		}
	default:
		b.WriteString("\n_Binary content; select to copy it back to the clipboard._\n")
	}
	return b.String()
}

// Render turns Markdown output into terminal text wrapped at wrap columns.
// It falls back to the raw markdown if glamour cannot render.
func Render(md string, wrap int) string {
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(DefaultGlamourStyle),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func HumanSize(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func mimeOr(mime, fallback string) string {
	if strings.TrimSpace(mime) == "" {
		return fallback
	}
	return mime
}
