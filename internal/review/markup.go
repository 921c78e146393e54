package review

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

const (
	containerOpen = "<div style='background-color:#121212; color:#ffffff; font-family:Arial, sans-serif; padding:15px;'>"
	noticeOpen    = "<div style='background-color:#121212; color:#ffffff; padding:15px;'>"
	divClose      = "</div>"
)

var (
	PlaceholderMarkup = notice("LLM response will appear here.")
	AnalyzingMarkup   = notice("<em>Analyzing code, please wait...</em>")
	NoCodeMarkup      = ErrorMarkup("Error:", "No code to analyze.")
)

func notice(body string) string {
	return noticeOpen + body + divClose
}

// ErrorMarkup renders label in bold followed by the escaped message.
func ErrorMarkup(label, message string) string {
	return notice(fmt.Sprintf("<strong>%s</strong> %s", html.EscapeString(label), html.EscapeString(message)))
}

// Renderer converts model replies (Markdown) into dark-theme HTML with
// highlighted fenced code blocks.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	code := codeBlockRenderer{
		inner: highlighting.NewHTMLRenderer(highlighting.WithStyle("monokai")),
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				renderer.WithNodeRenderers(util.Prioritized(code, 100)),
			),
		),
	}
}

func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(containerOpen)
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	buf.WriteString(divClose)
	return buf.String(), nil
}

// codeBlockRenderer wraps the highlighted output of every fenced block in
// <div class="code-block" data-lang="...">. Chroma drops the info string,
// and ExtractText needs it to rebuild the fence.
type codeBlockRenderer struct {
	inner renderer.NodeRenderer
}

type funcRecorder map[ast.NodeKind]renderer.NodeRendererFunc

func (f funcRecorder) Register(kind ast.NodeKind, fn renderer.NodeRendererFunc) {
	f[kind] = fn
}

func (r codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	funcs := funcRecorder{}
	r.inner.RegisterFuncs(funcs)
	highlight := funcs[ast.KindFencedCodeBlock]

	reg.Register(ast.KindFencedCodeBlock, func(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			_, _ = w.WriteString(`<div class="code-block"`)
			if lang := n.(*ast.FencedCodeBlock).Language(source); len(lang) > 0 {
				_, _ = w.WriteString(` data-lang="`)
				_, _ = w.Write(util.EscapeHTML(lang))
				_ = w.WriteByte('"')
			}
			_, _ = w.WriteString(">\n")
		}

		status := ast.WalkContinue
		if highlight != nil {
			var err error
			if status, err = highlight(w, source, n, entering); err != nil {
				return status, err
			}
		}

		if !entering {
			_, _ = w.WriteString("</div>\n")
		}
		return status, nil
	})
}
