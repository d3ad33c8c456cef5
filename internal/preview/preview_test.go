package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"clipper/internal/catalog"
	"clipper/internal/classify"
	"clipper/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageSummaryReadsDimensions(t *testing.T) {
	data := encodePNG(t, 12, 7)
	assert.True(t, strings.HasPrefix(ImageSummary(data, "image/png"), "png 12x7, "))
}

func TestImageSummaryUndecodable(t *testing.T) {
	assert.Equal(t, "image/svg+xml, 5 B", ImageSummary([]byte("<svg>"), "image/svg+xml"))
}

func TestTitleByCategory(t *testing.T) {
	text := catalog.Item{
		Entry: history.Entry{Line: "1\thello"},
		Data:  []byte("hello\n  wide   world"),
		Class: classify.Result{Category: classify.Text, MIME: "text/plain"},
	}
	assert.Equal(t, "hello wide world", Title(text, 0))
	assert.Equal(t, "hello…", Title(text, 6))

	img := catalog.Item{
		Entry: history.Entry{Line: "2\t[[ binary ]]"},
		Data:  encodePNG(t, 3, 4),
		Class: classify.Result{Category: classify.Image, MIME: "image/png"},
	}
	assert.True(t, strings.HasPrefix(Title(img, 0), "[image] png 3x4"))

	other := catalog.Item{
		Entry: history.Entry{Line: "3"},
		Data:  []byte{0, 1, 2},
		Class: classify.Result{Category: classify.Other},
	}
	assert.Equal(t, "3", Title(other, 0))
}

func TestDescription(t *testing.T) {
	it := catalog.Item{
		Entry: history.Entry{Line: "42\tx"},
		Data:  make([]byte, 2048),
		Class: classify.Result{Category: classify.Other},
	}
	assert.Equal(t, "#42  other  2.0 KiB", Description(it))
}

func TestMarkdownFencesText(t *testing.T) {
	it := catalog.Item{
		Entry: history.Entry{Line: "5\tcode"},
		Data:  []byte("see ```inner``` fence"),
		Class: classify.Result{Category: classify.Text, MIME: "text/plain"},
	}
	md := Markdown(it)
	assert.Contains(t, md, "````text\nsee ```inner``` fence\n````")
}

func TestMarkdownImageShowsStagedPath(t *testing.T) {
	it := catalog.Item{
		Entry:      history.Entry{Line: "6\timg"},
		Data:       encodePNG(t, 1, 1),
		Class:      classify.Result{Category: classify.Image, MIME: "image/png"},
		StagedPath: "/tmp/clipper/session-x/abc.png",
	}
	assert.Contains(t, Markdown(it), "/tmp/clipper/session-x/abc.png")
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KiB", HumanSize(1536))
	assert.Equal(t, "3.0 MiB", HumanSize(3*1024*1024))
}

func TestRenderFallsBackGracefully(t *testing.T) {
	out := Render("# Title\n\nbody\n", 5)
	assert.Contains(t, out, "body")
}
