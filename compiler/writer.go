package compiler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/jamc/callgraph"
)

// Call graph artifact names.
const (
	GraphDOT  = "callgraph.dot"
	GraphHTML = "callgraph.html"
)

// ArtifactWriter stores a Result under a base URL.
type ArtifactWriter struct {
	fs        afs.Service
	baseURL   string
	callGraph bool
}

// NewArtifactWriter creates a writer; callGraph adds the DOT and HTML renderings.
func NewArtifactWriter(fs afs.Service, baseURL string, callGraph bool) *ArtifactWriter {
	return &ArtifactWriter{fs: fs, baseURL: baseURL, callGraph: callGraph}
}

// Write uploads every artifact and returns their URLs.
func (w *ArtifactWriter) Write(ctx context.Context, result *Result) ([]string, error) {
	files, err := result.Files()
	if err != nil {
		return nil, err
	}
	if w.callGraph {
		for _, graph := range []struct {
			name   string
			format callgraph.Format
		}{{GraphDOT, callgraph.DOT}, {GraphHTML, callgraph.HTML}} {
			buffer := &bytes.Buffer{}
			if err := result.Checked.Render(buffer, graph.format); err != nil {
				return nil, fmt.Errorf("failed to render %v: %w", graph.name, err)
			}
			files = append(files, File{Name: graph.name, Data: buffer.Bytes()})
		}
	}
	var URLs []string
	for _, f := range files {
		URL := url.Join(w.baseURL, f.Name)
		if err := w.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(f.Data)); err != nil {
			return nil, fmt.Errorf("failed to write %v: %w", URL, err)
		}
		URLs = append(URLs, URL)
	}
	return URLs, nil
}
