package service

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	noteEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	noteSanitizer = bluemonday.UGCPolicy()
)

// RenderNoteHTML 将计划笔记的 Markdown 渲染为消毒后的 HTML
func RenderNoteHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := noteEngine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render note: %w", err)
	}
	return noteSanitizer.Sanitize(buf.String()), nil
}
