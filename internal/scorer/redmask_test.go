package scorer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// writeFixture renders a 10x10 PNG whose first redPixels pixels are strongly
// red and the rest are white.
func writeFixture(t *testing.T, redPixels int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	n := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if n < redPixels {
				img.Set(x, y, color.NRGBA{R: 200, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
			n++
		}
	}

	path := filepath.Join(t.TempDir(), "fixture.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestRedMaskScoresRedFraction(t *testing.T) {
	cases := []struct {
		name      string
		redPixels int
		want      int
	}{
		{name: "no red", redPixels: 0, want: 0},
		{name: "quarter red doubles", redPixels: 25, want: 50},
		{name: "half red caps", redPixels: 50, want: 100},
		{name: "all red caps", redPixels: 100, want: 100},
	}

	s := NewRedMask()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFixture(t, tc.redPixels)
			got, err := s.Score(context.Background(), path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected score %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRedMaskIsDeterministic(t *testing.T) {
	s := NewRedMask()
	path := writeFixture(t, 13)

	first, err := s.Score(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Score(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("same image must score the same: %d vs %d", first, second)
	}
}

func TestRedMaskFailsOnUndecodableImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-an-image.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	s := NewRedMask()
	if _, err := s.Score(context.Background(), path); err == nil {
		t.Fatal("expected error for undecodable image")
	} else {
		var scoreErr *ScoreError
		if !errors.As(err, &scoreErr) {
			t.Fatalf("expected ScoreError, got %T", err)
		}
	}
}

func TestRedMaskFailsOnMissingFile(t *testing.T) {
	s := NewRedMask()
	if _, err := s.Score(context.Background(), filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
