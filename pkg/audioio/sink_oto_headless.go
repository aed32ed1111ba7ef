//go:build headless

package audioio

import "log/slog"

const otoAvailable = false

func newOtoSink(Config, *slog.Logger) (Sink, error) {
	return nil, ErrBackendUnavailable
}
