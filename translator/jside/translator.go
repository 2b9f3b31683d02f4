// Package jside translates the JavaScript fragment: it records JS call sites
// and side effects into the shared graph and emits the worker program plus its
// startup snippet.
package jside

import "github.com/viant/jamc/jam"

// Translator is the JS-emitting translator.
type Translator struct{}

// New creates a JS translator.
func New() *Translator {
	return &Translator{}
}

// Language returns jam.JS.
func (t *Translator) Language() jam.Language {
	return jam.JS
}
