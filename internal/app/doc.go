// Package app contains the core application logic: loading the node
// catalog, loading and instantiating a tree document, and optionally
// rendering the result back to XML. It is decoupled from any specific
// entrypoint like a CLI or server.
package app
