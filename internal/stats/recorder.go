// Package stats aggregates per-path rewrite and pass-through counters for
// the admin API and an optional periodic dump file.
package stats

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

type RewriteRecord struct {
	Path          string `json:"path"`
	Kind          string `json:"kind"`
	Encoding      string `json:"encoding"`
	Count         int    `json:"count"`
	OriginalSize  int    `json:"original_size"`
	RewrittenSize int    `json:"rewritten_size"`
}

type PassRecord struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Recorder collects records through buffered channels so the request path
// never blocks on stats bookkeeping.
type Recorder struct {
	rewriteChan chan *RewriteRecord
	passChan    chan *PassRecord
	done        chan struct{}

	mu       sync.RWMutex
	rewrites map[string]*RewriteRecord
	passes   map[string]*PassRecord

	dumpFile   string
	dumpWriter *bufio.Writer
}

func NewRecorder(dumpFile string) *Recorder {
	return &Recorder{
		rewriteChan: make(chan *RewriteRecord, 100),
		passChan:    make(chan *PassRecord, 100),
		done:        make(chan struct{}),
		rewrites:    make(map[string]*RewriteRecord, 128),
		passes:      make(map[string]*PassRecord, 128),
		dumpFile:    dumpFile,
		dumpWriter:  bufio.NewWriter(nil),
	}
}

func (r *Recorder) Run() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case rec := <-r.rewriteChan:
				r.addRewrite(rec)
			case rec := <-r.passChan:
				r.addPass(rec)
			case <-ticker.C:
				r.Dump()
			case <-r.done:
				return
			}
		}
	}()
}

func (r *Recorder) Close() error {
	close(r.done)
	r.Dump()
	return nil
}

// AddRewrite records a rewritten response. Non-blocking: when the channel is
// full the record is dropped rather than delaying the response.
func (r *Recorder) AddRewrite(rec *RewriteRecord) {
	select {
	case r.rewriteChan <- rec:
	default:
	}
}

// AddPass records a response that streamed through without rewriting.
func (r *Recorder) AddPass(rec *PassRecord) {
	select {
	case r.passChan <- rec:
	default:
	}
}

func (r *Recorder) addRewrite(rec *RewriteRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.rewrites[rec.Path]; exists {
		cur.Count++
		cur.Kind = rec.Kind
		cur.Encoding = rec.Encoding
		cur.OriginalSize = rec.OriginalSize
		cur.RewrittenSize = rec.RewrittenSize
	} else {
		rec.Count = 1
		r.rewrites[rec.Path] = rec
	}
}

func (r *Recorder) addPass(rec *PassRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, exists := r.passes[rec.Path]; exists {
		cur.Count++
		cur.Reason = rec.Reason
	} else {
		rec.Count = 1
		r.passes[rec.Path] = rec
	}
}

// Snapshot returns copies of both tables sorted by count, highest first.
func (r *Recorder) Snapshot() ([]RewriteRecord, []PassRecord) {
	r.mu.RLock()
	rewrites := make([]RewriteRecord, 0, len(r.rewrites))
	for _, rec := range r.rewrites {
		rewrites = append(rewrites, *rec)
	}
	passes := make([]PassRecord, 0, len(r.passes))
	for _, rec := range r.passes {
		passes = append(passes, *rec)
	}
	r.mu.RUnlock()

	sort.SliceStable(rewrites, func(i, j int) bool { return rewrites[i].Count > rewrites[j].Count })
	sort.SliceStable(passes, func(i, j int) bool { return passes[i].Count > passes[j].Count })
	return rewrites, passes
}

// Dump writes the rewrite table to the configured file, one path per line.
func (r *Recorder) Dump() {
	if r.dumpFile == "" {
		return
	}
	f, err := os.Create(r.dumpFile)
	if err != nil {
		slog.Error("os.Create", slog.Any("error", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("os.File.Close", slog.Any("error", err))
		}
	}()

	rewrites, _ := r.Snapshot()

	r.dumpWriter.Reset(f)
	defer func() {
		if err := r.dumpWriter.Flush(); err != nil {
			slog.Error("bufio.Writer.Flush", slog.Any("error", err))
		}
	}()

	for _, rec := range rewrites {
		_, err := fmt.Fprintf(r.dumpWriter, "%s %d %s %s %d->%d\n",
			rec.Path, rec.Count, rec.Kind, rec.Encoding, rec.OriginalSize, rec.RewrittenSize)
		if err != nil {
			slog.Error("Dump fmt.Fprintf", slog.Any("error", err))
		}
	}
}
