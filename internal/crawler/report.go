package crawler

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// State is a step of the per-entry state machine.
type State int

const (
	Idle State = iota
	Searching
	NoResults
	ResultsFound
	TraversingVariants
	Persisting
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case NoResults:
		return "no_results"
	case ResultsFound:
		return "results_found"
	case TraversingVariants:
		return "traversing_variants"
	case Persisting:
		return "persisting"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EntryReport summarises one catalog entry.
type EntryReport struct {
	Product         string   `json:"product"`
	State           State    `json:"state"`
	URLs            []string `json:"urls,omitempty"`
	Records         int      `json:"records"`
	VariantFailures int      `json:"variant_failures"`
	SinkFailures    int      `json:"sink_failures"`
	Error           string   `json:"error,omitempty"`
}

// Report summarises a whole run.
type Report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Entries    []EntryReport `json:"entries"`
}

// Records is the number of records persisted by every sink append that succeeded.
func (r *Report) Records() int {
	n := 0
	for _, e := range r.Entries {
		n += e.Records
	}
	return n
}

// Count returns how many entries ended in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, e := range r.Entries {
		if e.State == s {
			n++
		}
	}
	return n
}

func (r *Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Product", "State", "URLs", "Records", "Variant failures", "Sink failures", "Error"})

	var urls, variantFailures, sinkFailures int
	for i, e := range r.Entries {
		t.AppendRow(table.Row{i + 1, e.Product, e.State, len(e.URLs), e.Records, e.VariantFailures, e.SinkFailures, e.Error})
		urls += len(e.URLs)
		variantFailures += e.VariantFailures
		sinkFailures += e.SinkFailures
	}

	t.AppendFooter(table.Row{"", "Total", r.FinishedAt.Sub(r.StartedAt).Round(time.Second), urls, r.Records(), variantFailures, sinkFailures, ""})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
