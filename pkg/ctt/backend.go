package ctt

import (
	"context"

	"github.com/teslashibe/go-ctt/pkg/protocol"
	"github.com/teslashibe/go-ctt/pkg/session"
	"github.com/teslashibe/go-ctt/pkg/tracking"
	"github.com/teslashibe/go-ctt/pkg/web"
)

// App implements web.Backend.
var _ web.Backend = (*App)(nil)

// Status returns the engine snapshot and surrounding state.
func (a *App) Status() protocol.StatusData {
	st := protocol.StatusData{
		Snapshot:    a.engine.Snapshot(),
		ToneEnabled: a.player.Enabled(),
		InputDevice: a.device.Name(),
		Records:     a.recorder.RecordCount(),
	}
	if a.sink != nil {
		st.AudioBackend = a.sink.Name()
	}
	if ev := a.remoteState.Load(); ev != nil && ev.Connected {
		st.RemoteConnected = true
		st.RemotePeer = ev.Peer
	}
	return st
}

// Summaries returns the trials recorded since startup.
func (a *App) Summaries() []session.Summary {
	return a.recorder.Summaries()
}

// History returns stored trial summaries.
func (a *App) History(ctx context.Context, limit int) ([]session.Summary, error) {
	if a.store == nil {
		return nil, web.ErrNoHistory
	}
	return a.store.Summaries(ctx, limit)
}

// Tuning returns the engine dynamics.
func (a *App) Tuning() tracking.TuningParams {
	return a.engine.Tuning()
}

// SetTuning applies new dynamics on the simulation goroutine.
func (a *App) SetTuning(ctx context.Context, p tracking.TuningParams) error {
	return a.runOnSim(ctx, func() error {
		if err := a.engine.SetTuning(p); err != nil {
			return err
		}
		a.recorder.SetFarOffset(farOffset(a.engine.Config()))
		return nil
	})
}
