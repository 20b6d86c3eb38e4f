package clusters

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func TestAnalyze_Rectangles(t *testing.T) {
	img := createTestImage(100, 50, color.White)
	r1, r2, r3, r4 := box(10, 5, 10, 10), box(40, 8, 10, 10), box(70, 5, 10, 10), box(10, 30, 10, 10)
	for _, r := range []BoundingBox{r1, r2, r3, r4} {
		fillRect(img, r.X, r.Y, r.Width, r.Height, color.Black)
	}

	tests := []struct {
		name      string
		requested Direction
		wantDir   Direction
		want      []BoundingBox
	}{
		{"unspecified", "", RightToLeft, []BoundingBox{r3, r2, r1, r4}},
		{"rtl", RightToLeft, RightToLeft, []BoundingBox{r3, r2, r1, r4}},
		{"ltr", LeftToRight, LeftToRight, []BoundingBox{r1, r2, r3, r4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Analyze(img, tt.requested, DefaultOptions())
			if res.Direction != tt.wantDir {
				t.Errorf("direction: got %q, want %q", res.Direction, tt.wantDir)
			}
			if len(res.Clusters) != len(tt.want) {
				t.Fatalf("got %d clusters, want %d", len(res.Clusters), len(tt.want))
			}
			for i, want := range tt.want {
				if res.Clusters[i].Bounds != want {
					t.Errorf("position %d: got %+v, want %+v", i, res.Clusters[i].Bounds, want)
				}
			}
		})
	}
}

func TestAnalyze_EmptyAndBlank(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"zero size", image.NewRGBA(image.Rect(0, 0, 0, 0))},
		{"all white", createTestImage(30, 30, color.White)},
		{"all transparent", image.NewNRGBA(image.Rect(0, 0, 30, 30))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Analyze(tt.img, "", DefaultOptions())
			if res.Direction != RightToLeft {
				t.Errorf("direction: got %q, want rtl", res.Direction)
			}
			if res.Clusters == nil || len(res.Clusters) != 0 {
				t.Errorf("clusters: got %v, want empty", res.Clusters)
			}

			data, err := json.Marshal(res)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != `{"direction":"rtl","clusters":[]}` {
				t.Errorf("json: got %s", data)
			}
		})
	}
}

func TestAnalyze_RenderedText(t *testing.T) {
	img := createTestImage(160, 50, color.White)
	drawText(img, 10, 15, "HELLO", color.Black)
	drawText(img, 10, 40, "WORLD", color.Black)

	opts := DefaultOptions()
	for _, dir := range []Direction{LeftToRight, RightToLeft} {
		t.Run(string(dir), func(t *testing.T) {
			res, lines := AnalyzeLines(img, dir, opts)

			labeling := Label(Classify(img, opts.Classifier), opts.Connectivity)
			if len(res.Clusters) != labeling.Count {
				t.Errorf("cluster count %d differs from component count %d", len(res.Clusters), labeling.Count)
			}
			if len(lines) != 2 {
				t.Fatalf("got %d lines, want 2", len(lines))
			}
			t.Logf("%s: %d clusters over %d lines", dir, len(res.Clusters), len(lines))

			for i, ln := range lines {
				if len(ln.Boxes) < 3 {
					t.Errorf("line %d: got %d boxes, want at least 3", i, len(ln.Boxes))
				}
				for j := 1; j < len(ln.Boxes); j++ {
					prev, cur := ln.Boxes[j-1].X, ln.Boxes[j].X
					if dir == LeftToRight && cur < prev {
						t.Errorf("line %d: ltr x %d after %d", i, cur, prev)
					}
					if dir == RightToLeft && cur > prev {
						t.Errorf("line %d: rtl x %d after %d", i, cur, prev)
					}
				}
			}
			if lines[0].Top >= lines[1].Top {
				t.Errorf("lines out of order: tops %d and %d", lines[0].Top, lines[1].Top)
			}

			b := img.Bounds()
			for _, c := range res.Clusters {
				bb := c.Bounds
				if bb.X < 0 || bb.Y < 0 || bb.Width < 1 || bb.Height < 1 ||
					bb.Right() > b.Dx() || bb.Bottom() > b.Dy() {
					t.Errorf("box %+v violates image bounds %v", bb, b)
				}
			}
		})
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	img := createTestImage(120, 30, color.White)
	drawText(img, 5, 20, "A1 b2 C3", color.Black)

	first, err := json.Marshal(Analyze(img, "", DefaultOptions()))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(Analyze(img, "", DefaultOptions()))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Errorf("results differ:\n%s\n%s", first, second)
	}
}

func TestAnalyze_Connectivity(t *testing.T) {
	img := createTestImage(3, 3, color.White)
	img.Set(0, 0, color.Black)
	img.Set(1, 1, color.Black)
	img.Set(2, 2, color.Black)

	opts := DefaultOptions()
	if got := len(Analyze(img, LeftToRight, opts).Clusters); got != 1 {
		t.Errorf("8-connected diagonal: got %d clusters, want 1", got)
	}

	opts.Connectivity = Connectivity4
	if got := len(Analyze(img, LeftToRight, opts).Clusters); got != 3 {
		t.Errorf("4-connected diagonal: got %d clusters, want 3", got)
	}
}

func TestAnalyze_MinClusterArea(t *testing.T) {
	img := createTestImage(40, 20, color.White)
	fillRect(img, 2, 2, 6, 6, color.Black)
	img.Set(20, 10, color.Black) // speck

	opts := DefaultOptions()
	if got := len(Analyze(img, LeftToRight, opts).Clusters); got != 2 {
		t.Errorf("default: got %d clusters, want 2", got)
	}

	opts.MinClusterArea = 4
	res := Analyze(img, LeftToRight, opts)
	if len(res.Clusters) != 1 {
		t.Fatalf("filtered: got %d clusters, want 1", len(res.Clusters))
	}
	if res.Clusters[0].Bounds != box(2, 2, 6, 6) {
		t.Errorf("kept cluster: got %+v", res.Clusters[0].Bounds)
	}
}

func TestResult_Annotate(t *testing.T) {
	res := &Result{
		Direction: LeftToRight,
		Clusters:  []Cluster{{Bounds: box(0, 0, 1, 1)}, {Bounds: box(5, 0, 1, 1)}},
	}

	out := res.Annotate(func(i int, c Cluster) Cluster {
		c.Text = string(rune('a' + i))
		c.Confidence = 90
		return c
	})

	if out.Clusters[0].Text != "a" || out.Clusters[1].Text != "b" {
		t.Errorf("annotated text: got %q, %q", out.Clusters[0].Text, out.Clusters[1].Text)
	}
	if res.Clusters[0].Text != "" {
		t.Error("original result should be untouched")
	}
	if out.Direction != res.Direction {
		t.Error("direction should be carried over")
	}
}
