package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Skufu/glucorisk/internal/model"
)

func pimaLikeCSV(rows int) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		glucose := 80 + (i*37)%120
		outcome := 0
		if glucose >= 140 {
			outcome = 1
		}
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d,%.1f,%d,%d\n",
			i%10, glucose, 60+(i*7)%30, 10+(i*11)%30, 50+(i*13)%100, 20+(i*17)%20,
			0.1+float64(i%9)*0.1, 21+(i*3)%50, outcome)
	}
	return b.String()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunFromFile(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "pima.csv")
	if err := os.WriteFile(data, []byte(pimaLikeCSV(150)), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "model.json")

	opts := model.DefaultTrainOptions()
	opts.MaxIter = 200
	if err := run(context.Background(), quietLogger(), data, out, 0.2, 42, opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	m, err := model.Load(out)
	if err != nil {
		t.Fatalf("load trained model: %v", err)
	}
	if m.Metrics.TrainRows != 120 || m.Metrics.TestRows != 30 {
		t.Fatalf("unexpected split in metrics: %+v", m.Metrics)
	}
	if m.Metrics.TrainedAt == nil || m.Metrics.Accuracy == 0 {
		t.Fatalf("expected training metadata, got %+v", m.Metrics)
	}
}

func TestRunFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, pimaLikeCSV(100))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "model.json")
	opts := model.DefaultTrainOptions()
	opts.MaxIter = 50
	if err := run(context.Background(), quietLogger(), srv.URL+"/pima.csv", out, 0.2, 42, opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected artifact: %v", err)
	}
}

func TestOpenDatasetErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := openDataset(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := openDataset(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
