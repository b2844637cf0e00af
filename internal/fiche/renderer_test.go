package fiche

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/horizon-rh/horizon-rh/testing"
)

type fakePDFClient struct {
	lastHTML string
}

func (c *fakePDFClient) RenderHTML(_ context.Context, html string) ([]byte, error) {
	c.lastHTML = html
	return []byte("%PDF-1.7 fake"), nil
}

func TestNewRendererRequiresClient(t *testing.T) {
	_, err := NewRenderer(nil)
	require.Error(t, err)
}

func TestRendererRenderHTML(t *testing.T) {
	client := &fakePDFClient{}
	r, err := NewRenderer(client)
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }

	html, err := r.RenderHTML(BuildDocument(sampleRecord(), r.now()))
	require.NoError(t, err)
	require.Contains(t, html, "Fiche de demande de congé")
	require.Contains(t, html, "Moussa Ndiaye")
	require.Contains(t, html, "Comptabilité")
	require.Contains(t, html, "13/01/2025")
	require.Contains(t, html, "En attente")
	require.Contains(t, html, "01/02/2025 09:00")
}

func TestRendererRender(t *testing.T) {
	client := &fakePDFClient{}
	r, err := NewRenderer(client)
	require.NoError(t, err)

	res, err := r.Render(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.7 fake"), res.PDF)
	require.Equal(t, int64(len(res.PDF)), res.Length)
	require.Equal(t, res.HTML, client.lastHTML)

	pdf, err := r.RenderPDF(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
}
