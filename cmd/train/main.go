package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Skufu/glucorisk/internal/model"
	"github.com/Skufu/glucorisk/internal/observability"
)

const defaultDataURL = "https://raw.githubusercontent.com/jbrownlee/Datasets/master/pima-indians-diabetes.data.csv"

func main() {
	data := flag.String("data", defaultDataURL, "dataset CSV path or http(s) URL")
	out := flag.String("out", "models/diabetes_model.json", "artifact output path")
	testSize := flag.Float64("test-size", 0.2, "fraction of rows held out for evaluation")
	seed := flag.Int64("seed", 42, "shuffle seed for the train/test split")
	maxIter := flag.Int("max-iter", 1000, "gradient descent iterations")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.InitLogger(observability.LogConfig{Level: *logLevel, Format: "text"})

	opts := model.DefaultTrainOptions()
	opts.MaxIter = *maxIter

	if err := run(context.Background(), logger, *data, *out, *testSize, *seed, opts); err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, src, out string, testSize float64, seed int64, opts model.TrainOptions) error {
	rc, err := openDataset(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	ds, err := model.LoadDataset(rc)
	if err != nil {
		return err
	}

	train, test, err := model.Split(ds, testSize, seed)
	if err != nil {
		return err
	}
	logger.Info("dataset loaded", "rows", ds.Len(), "train", train.Len(), "test", test.Len())

	m, err := model.Train(train, opts)
	if err != nil {
		return err
	}

	metrics, err := model.Evaluate(m, test)
	if err != nil {
		return err
	}
	metrics.TrainRows = train.Len()
	trainedAt := time.Now().UTC()
	metrics.TrainedAt = &trainedAt
	m.Metrics = metrics

	if err := m.Save(out); err != nil {
		return err
	}

	logger.Info("model trained and saved",
		"path", out,
		"version", m.Version,
		"accuracy", fmt.Sprintf("%.4f", metrics.Accuracy),
		"log_loss", fmt.Sprintf("%.4f", metrics.LogLoss),
	)
	return nil
}

func openDataset(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open dataset: %w", err)
		}
		return f, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create dataset request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("download dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("download dataset: unexpected status %s", resp.Status)
	}

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
