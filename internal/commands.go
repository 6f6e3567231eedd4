package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Export writes the stored collection to w.
func Export(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	snap, err := rt.service(nil).Export()
	if err != nil {
		return err
	}
	if _, err := w.Write(snap.Data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Import reads an exported collection from r and persists it.
func Import(ctx context.Context, r io.Reader, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	snap, err := rt.service(nil).Import(ctx, data, "")
	if err != nil {
		return err
	}
	rt.logger.Info("Weeks imported", slog.String("checksum", snap.Checksum))
	return nil
}

// Reset restores the week at index to its defaults and persists the result.
func Reset(ctx context.Context, index int, confirmed bool, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	rt, err := app.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.service(nil).ResetWeek(ctx, index, confirmed)
	if err != nil {
		return err
	}
	rt.logger.Info(res.Message, slog.String("number", res.Week.Number))
	return nil
}
