package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
)

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 30, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 30; x++ {
			c := color.Color(color.White)
			if y >= 2 && y < 10 && ((x >= 2 && x < 8) || (x >= 20 && x < 26)) {
				c = color.Black
			}
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"--version"}, nil, &out, &errOut); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.HasPrefix(out.String(), "cluster-analysis ") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRun_Help(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"help"}, nil, &out, &errOut); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out.String(), "analyze <file.png>") {
		t.Errorf("usage missing analyze: %q", out.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"frobnicate"}, nil, &out, &errOut); code != 2 {
		t.Errorf("exit code: got %d, want 2", code)
	}
	if !strings.Contains(errOut.String(), "unknown command") {
		t.Errorf("stderr: %q", errOut.String())
	}
}

func TestRun_Analyze(t *testing.T) {
	t.Setenv("CLUSTER_DEFAULT_DIRECTION", "")
	path := writePNG(t)

	tests := []struct {
		args    []string
		wantDir clusters.Direction
		firstX  int
	}{
		{[]string{"analyze", path}, clusters.RightToLeft, 20},
		{[]string{"analyze", path, "ltr"}, clusters.LeftToRight, 2},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args[2:], ","), func(t *testing.T) {
			var out, errOut bytes.Buffer
			if code := run(tt.args, nil, &out, &errOut); code != 0 {
				t.Fatalf("exit code %d: %s", code, errOut.String())
			}

			var res clusters.Result
			if err := json.Unmarshal(out.Bytes(), &res); err != nil {
				t.Fatalf("output is not a result: %v", err)
			}
			if res.Direction != tt.wantDir {
				t.Errorf("direction: got %q, want %q", res.Direction, tt.wantDir)
			}
			if len(res.Clusters) != 2 {
				t.Fatalf("got %d clusters, want 2", len(res.Clusters))
			}
			if res.Clusters[0].Bounds.X != tt.firstX {
				t.Errorf("first cluster x: got %d, want %d", res.Clusters[0].Bounds.X, tt.firstX)
			}
		})
	}
}

func TestRun_AnalyzeErrors(t *testing.T) {
	path := writePNG(t)

	for _, args := range [][]string{
		{"analyze"},
		{"analyze", path, "sideways"},
		{"analyze", filepath.Join(t.TempDir(), "missing.png")},
	} {
		var out, errOut bytes.Buffer
		if code := run(args, nil, &out, &errOut); code != 1 {
			t.Errorf("%v: exit code %d, want 1", args, code)
		}
		if out.Len() != 0 {
			t.Errorf("%v: unexpected stdout %q", args, out.String())
		}
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("CLUSTER_CONNECTIVITY", "6")

	var out, errOut bytes.Buffer
	if code := run([]string{"analyze", writePNG(t)}, nil, &out, &errOut); code != 1 {
		t.Errorf("exit code: got %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "CLUSTER_CONNECTIVITY") {
		t.Errorf("stderr should name the variable: %q", errOut.String())
	}
}

func TestRun_MCP(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out, errOut bytes.Buffer
	if code := run([]string{"mcp"}, in, &out, &errOut); code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), `"id":1`) {
		t.Errorf("unexpected MCP output %q", out.String())
	}
}
