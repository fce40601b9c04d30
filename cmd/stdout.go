package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/maddsua/pichecker"
)

type StdoutWriter struct {
}

func (this *StdoutWriter) Type() string {
	return "stdout"
}

func (this *StdoutWriter) Version() string {
	return "x"
}

func (this *StdoutWriter) WriteStatus(ctx context.Context, entry pichecker.StatusEntry) error {

	message := "<nil>"
	if entry.Message != nil {
		message = *entry.Message
	}

	returnCode := "<nil>"
	if entry.ReturnCode != nil {
		returnCode = strconv.Itoa(*entry.ReturnCode)
	}

	slog.Info("STDOUT Status",
		slog.String("tick", entry.TickID),
		slog.String("label", entry.Label),
		slog.Bool("ok", entry.Up),
		slog.String("failure", entry.Failure.String()),
		slog.String("message", message),
		slog.String("return_code", returnCode),
		slog.Duration("elapsed", entry.Elapsed))
	return nil
}
