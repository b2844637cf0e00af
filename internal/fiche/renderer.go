package fiche

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/web"
)

// PDFClient exposes the subset of the report client used by the renderer.
type PDFClient interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// RenderResult bundles the rendered artefacts.
type RenderResult struct {
	HTML   string
	PDF    []byte
	Length int64
}

// Renderer turns a Document into HTML and PDF artefacts.
type Renderer struct {
	tpl    *template.Template
	client PDFClient
	now    func() time.Time
}

// NewRenderer parses the fiche template and wires the PDF client.
func NewRenderer(client PDFClient) (*Renderer, error) {
	if client == nil {
		return nil, fmt.Errorf("fiche renderer: pdf client required")
	}
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006 15:04")
		},
	}
	tpl, err := template.New("fiche_conge.html").Funcs(funcMap).ParseFS(web.Templates, "templates/reports/fiche_conge.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tpl: tpl, client: client, now: time.Now}, nil
}

// RenderHTML executes the template over a document.
func (r *Renderer) RenderHTML(doc Document) (string, error) {
	if r == nil || r.tpl == nil {
		return "", fmt.Errorf("fiche renderer not initialised")
	}
	buf := &bytes.Buffer{}
	if err := r.tpl.Execute(buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render builds the document for a snapshot and converts it to PDF.
func (r *Renderer) Render(ctx context.Context, rec leave.RequestRecord) (RenderResult, error) {
	if r == nil || r.client == nil {
		return RenderResult{}, fmt.Errorf("fiche renderer not initialised")
	}
	html, err := r.RenderHTML(BuildDocument(rec, r.now()))
	if err != nil {
		return RenderResult{}, err
	}
	pdf, err := r.client.RenderHTML(ctx, html)
	if err != nil {
		return RenderResult{}, err
	}
	return RenderResult{HTML: html, PDF: pdf, Length: int64(len(pdf))}, nil
}

// RenderPDF satisfies the leave handler's fiche port.
func (r *Renderer) RenderPDF(ctx context.Context, rec leave.RequestRecord) ([]byte, error) {
	res, err := r.Render(ctx, rec)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}
