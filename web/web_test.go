package web

import (
	"io/fs"
	"strings"
	"testing"
)

func TestIndexEmbedded(t *testing.T) {
	data, err := fs.ReadFile(FS(), "index.html")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	page := string(data)
	for _, want := range []string{"Monitor de Autocarros Carris", "/api/buses?direction=", "/api/directions"} {
		if !strings.Contains(page, want) {
			t.Errorf("index.html should contain %q", want)
		}
	}
}
