// Package feed consumes reservation documents from a NATS subject and
// publishes the converted itineraries.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"pnr_parser/internal/engine"
	"pnr_parser/internal/itinerary"
	"pnr_parser/internal/metrics"
	"pnr_parser/internal/pnr"
	"pnr_parser/internal/render"
	"pnr_parser/internal/storage"
)

// Request is one conversion job. A payload that is not valid JSON is
// treated as the reservation text itself, so plain publishers do not
// need an envelope.
type Request struct {
	ID      string          `json:"id,omitempty"`
	Text    string          `json:"text"`
	Options *render.Options `json:"options,omitempty"`
	Render  bool            `json:"render,omitempty"`
	Year    int             `json:"year,omitempty"`
}

// RenderedViews carries the display renderings of an itinerary.
type RenderedViews struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// Response is the published conversion result.
type Response struct {
	ID        string                 `json:"id,omitempty"`
	ArchiveID int64                  `json:"archive_id,omitempty"`
	Format    string                 `json:"format"`
	Itinerary *itinerary.ParseResult `json:"itinerary"`
	Rendered  *RenderedViews         `json:"rendered,omitempty"`
}

// Archive receives finished conversions; the SQLite and PostgreSQL
// stores both satisfy it.
type Archive interface {
	Insert(ctx context.Context, c storage.Conversion) (int64, error)
}

// EventSink receives one analytics event per finished conversion. The
// ClickHouse sink satisfies it.
type EventSink interface {
	Insert(ctx context.Context, ev storage.ConversionEvent) error
}

// Config holds the worker's connection and subject settings.
type Config struct {
	URL           string
	Subject       string // conversion requests arrive here
	ResultSubject string // results go here when the request has no reply inbox
	Queue         string // queue group for horizontal scaling
}

// Worker subscribes to the request subject and answers each message with
// a conversion result. Replies go to the request's reply inbox when one
// is set, otherwise to the configured result subject.
type Worker struct {
	cfg     Config
	conn    *nats.Conn
	archive Archive
	events  EventSink
	metrics *metrics.Metrics
	log     *zap.SugaredLogger
}

// New connects to the NATS server and prepares a worker. The archive and
// event sink may be nil to skip persistence and analytics.
func New(cfg Config, archive Archive, events EventSink, m *metrics.Metrics, log *zap.SugaredLogger) (*Worker, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("feed: subject is required")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("pnr-feed-worker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("feed: connect %s: %w", cfg.URL, err)
	}

	return &Worker{
		cfg:     cfg,
		conn:    conn,
		archive: archive,
		events:  events,
		metrics: m,
		log:     log,
	}, nil
}

// Run subscribes and blocks until ctx is cancelled, then drains the
// subscription so in-flight messages finish.
func (w *Worker) Run(ctx context.Context) error {
	sub, err := w.conn.QueueSubscribe(w.cfg.Subject, w.cfg.Queue, func(msg *nats.Msg) {
		w.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("feed: subscribe %s: %w", w.cfg.Subject, err)
	}

	w.log.Infow("feed worker listening",
		"subject", w.cfg.Subject,
		"queue", w.cfg.Queue,
		"result_subject", w.cfg.ResultSubject,
	)

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		return fmt.Errorf("feed: drain: %w", err)
	}
	return nil
}

// Close drops the NATS connection.
func (w *Worker) Close() {
	w.conn.Close()
}

func (w *Worker) handle(ctx context.Context, msg *nats.Msg) {
	resp := w.Process(ctx, msg.Data)

	data, err := json.Marshal(resp)
	if err != nil {
		w.log.Errorw("marshal response", "error", err)
		return
	}

	target := msg.Reply
	if target == "" {
		target = w.cfg.ResultSubject
	}
	if target == "" {
		return
	}
	if err := w.conn.Publish(target, data); err != nil {
		w.log.Warnw("publish result", "subject", target, "error", err)
	}
}

// Process converts one request payload. It never fails: malformed JSON
// falls back to treating the payload as bare reservation text, and an
// empty document yields an empty itinerary.
func (w *Worker) Process(ctx context.Context, payload []byte) Response {
	req := decodeRequest(payload)

	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	format := pnr.DetectFormat(req.Text)

	start := time.Now()
	result := engine.ConvertAt(req.Text, year)
	if w.metrics != nil {
		w.metrics.ConversionTime.Observe(time.Since(start).Seconds())
		w.metrics.ConversionsTotal.WithLabelValues(string(format)).Inc()
		w.metrics.SegmentsPerConversion.Observe(float64(len(result.Segments)))
		if len(result.Segments) == 0 {
			w.metrics.EmptyConversions.Inc()
		}
	}

	resp := Response{
		ID:        req.ID,
		Format:    string(format),
		Itinerary: result,
	}

	if req.Render {
		opts := render.DefaultOptions()
		if req.Options != nil {
			opts = *req.Options
		}
		resp.Rendered = &RenderedViews{
			Text: render.Text(result, opts),
			HTML: render.HTML(result, opts),
		}
	}

	if w.archive != nil || w.events != nil {
		record, err := storage.NewConversion(string(format), req.Text, result)
		if err == nil {
			if w.archive != nil {
				id, insertErr := w.archive.Insert(ctx, record)
				if insertErr != nil {
					w.log.Warnw("archive insert failed", "error", insertErr)
				} else {
					resp.ArchiveID = id
				}
			}
			if w.events != nil {
				ev := storage.NewConversionEvent(uint64(resp.ArchiveID), record, result.Segments)
				if evErr := w.events.Insert(ctx, ev); evErr != nil {
					w.log.Warnw("analytics insert failed", "error", evErr)
				}
			}
		}
	}

	return resp
}

// decodeRequest accepts either the Request envelope or bare text.
func decodeRequest(payload []byte) Request {
	var req Request
	if err := json.Unmarshal(payload, &req); err == nil && req.Text != "" {
		return req
	}
	return Request{Text: string(payload)}
}
