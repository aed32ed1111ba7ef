package session

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-ctt/pkg/tracking"
)

// Trial is the data log of one trial.
type Trial struct {
	ID      string             `json:"id"`
	Info    tracking.TrialInfo `json:"info"`
	Records []tracking.Record  `json:"-"`
}

// Recorder collects records from the engine. It implements
// tracking.RecordSink; the engine calls it on the simulation goroutine while
// readers may inspect it from anywhere.
type Recorder struct {
	logger *slog.Logger

	mu        sync.Mutex
	trials    []Trial
	current   *Trial
	summaries []Summary
	farOffset float64
	hooks     []func(Trial, Summary)
}

// NewRecorder creates an empty recorder. farOffset is the normalized far
// threshold used in summaries.
func NewRecorder(farOffset float64, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		logger:    logger.With("component", "session"),
		farOffset: farOffset,
	}
}

// SetFarOffset updates the threshold used by later summaries.
func (r *Recorder) SetFarOffset(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.farOffset = v
}

// OnTrialEnd registers fn to receive every finished trial.
func (r *Recorder) OnTrialEnd(fn func(Trial, Summary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// BeginTrial opens a new trial.
func (r *Recorder) BeginTrial(info tracking.TrialInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trials = append(r.trials, Trial{ID: uuid.NewString(), Info: info})
	r.current = &r.trials[len(r.trials)-1]
}

// Add appends a record to the open trial. Records outside a trial are dropped.
func (r *Recorder) Add(rec tracking.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Records = append(r.current.Records, rec)
	}
}

// EndTrial closes the open trial and summarizes it.
func (r *Recorder) EndTrial(info tracking.TrialInfo) {
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return
	}
	r.current.Info.End = info.End
	trial := cloneTrial(*r.current)
	r.current = nil
	summary := Summarize(trial, r.farOffset)
	r.summaries = append(r.summaries, summary)
	hooks := slices.Clone(r.hooks)
	r.mu.Unlock()

	r.logger.Info("trial recorded",
		"trial", summary.TrialID,
		"samples", summary.Samples,
		"rms_offset", fmt.Sprintf("%.4f", summary.RMSOffset),
		"longest_proper", summary.LongestProper.Round(time.Millisecond),
	)
	for _, h := range hooks {
		h(trial, summary)
	}
}

// Trials returns copies of all trials since the last Save.
func (r *Recorder) Trials() []Trial {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Trial, len(r.trials))
	for i, t := range r.trials {
		out[i] = cloneTrial(t)
	}
	return out
}

// Summaries returns the summaries of finished trials.
func (r *Recorder) Summaries() []Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Summary(nil), r.summaries...)
}

// RecordCount returns the number of rows waiting to be saved.
func (r *Recorder) RecordCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.trials {
		n += len(t.Records)
	}
	return n
}

// Save writes all trials to dir/ctt-<time>.txt and clears the log. An
// open trial keeps collecting into a fresh log. It returns "" when there is
// nothing to save.
func (r *Recorder) Save(dir string, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.trials) == 0 {
		return "", nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create log file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, t := range r.trials {
		fmt.Fprintln(w, tracking.RecordHeader)
		for _, rec := range t.Records {
			fmt.Fprintln(w, rec.Format())
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return "", fmt.Errorf("write log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close log file: %w", err)
	}

	var open *Trial
	if r.current != nil {
		open = &Trial{ID: r.current.ID, Info: r.current.Info}
	}
	r.trials = nil
	r.current = nil
	if open != nil {
		r.trials = append(r.trials, *open)
		r.current = &r.trials[0]
	}

	r.logger.Info("session saved", "path", path)
	return path, nil
}

// FileName returns the data file name for a save at t.
func FileName(t time.Time) string {
	return "ctt-" + t.Format("2006-01-02 15-04-05") + ".txt"
}

func cloneTrial(t Trial) Trial {
	t.Records = append([]tracking.Record(nil), t.Records...)
	return t
}
