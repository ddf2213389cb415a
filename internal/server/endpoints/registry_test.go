package endpoints

import (
	"testing"
)

func TestNewRegistry_Commands(t *testing.T) {
	root := NewRegistry().BuildCommands(func() string { return "http://localhost:8080" })

	for _, path := range [][]string{
		{"health"},
		{"status"},
		{"pdf", "split-ranges"},
		{"pdf", "split-pages"},
		{"pdf", "split-batch"},
		{"pdf", "preview-batch"},
		{"pdf", "merge"},
		{"pdf", "metadata"},
		{"ocr", "auth-test"},
		{"ocr", "health"},
		{"ocr", "process-file"},
		{"ocr", "process-url"},
		{"rag", "test-connection"},
		{"rag", "collections", "create"},
		{"rag", "collections", "list"},
		{"rag", "collections", "get"},
		{"rag", "collections", "delete"},
		{"settings", "list"},
		{"settings", "get"},
	} {
		cmd, rest, err := root.Find(path)
		if err != nil || len(rest) != 0 || cmd.Name() != path[len(path)-1] {
			t.Errorf("command %v not found", path)
		}
	}
}

func TestNewRegistry_UniqueRoutes(t *testing.T) {
	seen := map[string]bool{}
	for _, ep := range All() {
		method, path, handler := ep.Route()
		if handler == nil {
			t.Errorf("%s %s has no handler", method, path)
		}
		key := method + " " + path
		if seen[key] {
			t.Errorf("duplicate route %s", key)
		}
		seen[key] = true
	}
}
