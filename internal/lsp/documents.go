package lsp

import (
	"sync"

	"go.lsp.dev/uri"

	"github.com/jward/dfsense/internal/resolve"
)

type document struct {
	languageID string
	text       string
}

// documents tracks open editor buffers in the order they were opened.
type documents struct {
	mu    sync.RWMutex
	docs  map[uri.URI]*document
	order []uri.URI
}

func newDocuments() *documents {
	return &documents{docs: map[uri.URI]*document{}}
}

func (d *documents) open(u uri.URI, languageID, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.docs[u]; !ok {
		d.order = append(d.order, u)
	}
	d.docs[u] = &document{languageID: languageID, text: text}
}

// update replaces the text of an open document. Unknown documents are
// ignored.
func (d *documents) update(u uri.URI, text string) (document, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	doc, ok := d.docs[u]
	if !ok {
		return document{}, false
	}
	doc.text = text
	return *doc, true
}

func (d *documents) close(u uri.URI) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.docs[u]; !ok {
		return
	}
	delete(d.docs, u)
	for i, o := range d.order {
		if o == u {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

func (d *documents) get(u uri.URI) (document, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.docs[u]
	if !ok {
		return document{}, false
	}
	return *doc, true
}

// snapshot returns every open document for definition lookup.
func (d *documents) snapshot() []resolve.Document {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]resolve.Document, 0, len(d.order))
	for _, u := range d.order {
		doc := d.docs[u]
		out = append(out, resolve.Document{URI: string(u), LanguageID: doc.languageID, Text: doc.text})
	}
	return out
}
