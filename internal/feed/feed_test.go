package feed

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pnr_parser/internal/metrics"
	"pnr_parser/internal/render"
	"pnr_parser/internal/storage"
)

func testWorker(archive Archive, events EventSink) *Worker {
	return &Worker{
		archive: archive,
		events:  events,
		metrics: metrics.New(prometheus.NewRegistry()),
		log:     zap.NewNop().Sugar(),
	}
}

func TestProcessBareText(t *testing.T) {
	w := testWorker(nil, nil)

	resp := w.Process(context.Background(), []byte("1 AA 100 Y 05JAN 1 JFKLAX 1234 1430"))

	if resp.Format != "raw" {
		t.Errorf("Format = %q, want raw", resp.Format)
	}
	if len(resp.Itinerary.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(resp.Itinerary.Segments))
	}
	seg := resp.Itinerary.Segments[0]
	if seg.FlightNumber != "AA100" {
		t.Errorf("FlightNumber = %q, want AA100", seg.FlightNumber)
	}
	if seg.From != "JFK" || seg.To != "LAX" {
		t.Errorf("route = %s-%s, want JFK-LAX", seg.From, seg.To)
	}
	if resp.Rendered != nil {
		t.Error("bare text payload should not request rendering")
	}
}

func TestProcessEnvelope(t *testing.T) {
	w := testWorker(nil, nil)

	opts := render.DefaultOptions()
	opts.Language = "es"
	payload, err := json.Marshal(Request{
		ID:      "job-42",
		Text:    "1 AA 100 Y 05JAN 1 JFKLAX 1234 1430",
		Options: &opts,
		Render:  true,
		Year:    2026,
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := w.Process(context.Background(), payload)

	if resp.ID != "job-42" {
		t.Errorf("ID = %q, want job-42", resp.ID)
	}
	if resp.Rendered == nil {
		t.Fatal("expected rendered views")
	}
	if !strings.Contains(resp.Rendered.Text, "Vuelo") {
		t.Errorf("spanish rendering missing Vuelo label:\n%s", resp.Rendered.Text)
	}
	if resp.Rendered.HTML == "" {
		t.Error("expected HTML rendering")
	}
	dep := resp.Itinerary.Segments[0].DepDate
	if dep == nil || dep.Year() != 2026 {
		t.Errorf("DepDate = %v, want year 2026", dep)
	}
}

func TestProcessMalformedJSONFallsBackToText(t *testing.T) {
	w := testWorker(nil, nil)

	// Looks like JSON but is not; must be treated as document text.
	resp := w.Process(context.Background(), []byte(`{"text": broken`))

	if resp.Itinerary == nil {
		t.Fatal("expected an itinerary")
	}
	if len(resp.Itinerary.Segments) != 0 {
		t.Errorf("got %d segments from garbage, want 0", len(resp.Itinerary.Segments))
	}
}

type captureArchive struct {
	last storage.Conversion
	id   int64
}

func (a *captureArchive) Insert(_ context.Context, c storage.Conversion) (int64, error) {
	a.last = c
	a.id++
	return a.id, nil
}

func TestProcessArchives(t *testing.T) {
	arch := &captureArchive{}
	w := testWorker(arch, nil)

	resp := w.Process(context.Background(), []byte("1 AA 100 Y 05JAN 1 JFKLAX 1234 1430"))

	if resp.ArchiveID != 1 {
		t.Errorf("ArchiveID = %d, want 1", resp.ArchiveID)
	}
	if arch.last.SegmentCount != 1 {
		t.Errorf("archived SegmentCount = %d, want 1", arch.last.SegmentCount)
	}
	if arch.last.Format != "raw" {
		t.Errorf("archived Format = %q, want raw", arch.last.Format)
	}
}

type captureSink struct {
	events []storage.ConversionEvent
}

func (s *captureSink) Insert(_ context.Context, ev storage.ConversionEvent) error {
	s.events = append(s.events, ev)
	return nil
}

func TestProcessEmitsEvent(t *testing.T) {
	arch := &captureArchive{}
	sink := &captureSink{}
	w := testWorker(arch, sink)

	resp := w.Process(context.Background(), []byte("1 AA 100 Y 05JAN 1 JFKLAX 1234 1430"))

	if len(sink.events) != 1 {
		t.Fatalf("got %d events, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.ID != uint64(resp.ArchiveID) {
		t.Errorf("event ID = %d, want archive id %d", ev.ID, resp.ArchiveID)
	}
	if ev.Format != "raw" || ev.SegmentCount != 1 {
		t.Errorf("event = %s/%d segments, want raw/1", ev.Format, ev.SegmentCount)
	}
	if len(ev.Routes) != 1 || ev.Routes[0] != "JFK-LAX" {
		t.Errorf("event Routes = %v, want [JFK-LAX]", ev.Routes)
	}
}
