package tracking

import (
	"strconv"
	"strings"
	"time"
)

// RecordHeader is the header row written at the start of every trial.
const RecordHeader = "time\tlambda\tposition\tinput"

// Record is one data-log row, produced once per tick while running.
type Record struct {
	Time   time.Time `json:"time"`
	Lambda float64   `json:"lambda"`
	Offset float64   `json:"offset"`
	Input  float64   `json:"input"`
}

// Format renders the record as a tab-separated row: Unix milliseconds,
// lambda, offset and input with four decimals.
func (r Record) Format() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Time.UnixMilli(), 10))
	b.WriteByte('\t')
	b.WriteString(strconv.FormatFloat(r.Lambda, 'g', -1, 64))
	b.WriteByte('\t')
	b.WriteString(strconv.FormatFloat(r.Offset, 'f', 4, 64))
	b.WriteByte('\t')
	b.WriteString(strconv.FormatFloat(r.Input, 'f', 4, 64))
	return b.String()
}

// TrialInfo describes a trial when it starts or ends.
type TrialInfo struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end,omitzero"`
	Lambda      float64     `json:"lambda"`
	Orientation Orientation `json:"orientation"`
}

// RecordSink consumes the data log. Calls arrive on the simulation goroutine.
type RecordSink interface {
	BeginTrial(info TrialInfo)
	Add(r Record)
	EndTrial(info TrialInfo)
}

// ToneOutput receives the pitch factor and follows the trial lifecycle.
type ToneOutput interface {
	Start()
	Stop()
	SetPitchFactor(factor float64)
}
