package widget

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-lookup/internal/config"
	"github.com/fakhrymubarak/weather-lookup/internal/render"
	"github.com/fakhrymubarak/weather-lookup/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EmptyInputMessage is the blocking notice shown for an empty field.
const EmptyInputMessage = "Please enter a city name."

// Handler looks up the weather for the city in a text field and renders the
// result into an output region. Every activation issues its own request;
// overlapping requests are not de-duplicated.
type Handler struct {
	input    TextField
	output   OutputRegion
	notifier Notifier

	client        *http.Client
	baseURL       string
	logger        *zap.SugaredLogger
	checkStatus   bool
	sequenceGuard bool
	timeout       time.Duration

	// writeMu orders writes to output. mu guards seq and is never held while
	// output is written, so an OutputRegion may call Handle from SetHTML.
	writeMu sync.Mutex
	mu      sync.Mutex
	seq     uint64
	wg      sync.WaitGroup
}

type Option func(*Handler)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(h *Handler) { h.client = c }
}

// WithBaseURL sets the origin /weather/<city> is resolved against.
func WithBaseURL(u string) Option {
	return func(h *Handler) { h.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the developer-facing diagnostics channel.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithSequenceGuard drops any response that settles after a newer activation
// was dispatched. Off, the last response to settle wins.
func WithSequenceGuard(on bool) Option {
	return func(h *Handler) { h.sequenceGuard = on }
}

// WithStatusCheck sends non-2xx replies down the failure path without
// parsing them. Off, any reply body is parsed.
func WithStatusCheck(on bool) Option {
	return func(h *Handler) { h.checkStatus = on }
}

// WithTimeout bounds each request. Zero waits for the transport to settle.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New builds a handler over explicit page elements.
func New(input TextField, output OutputRegion, notifier Notifier, opts ...Option) *Handler {
	h := &Handler{
		input:       input,
		output:      output,
		notifier:    notifier,
		client:      http.DefaultClient,
		logger:      config.GetLogger(),
		checkStatus: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewFromConfig builds a handler from the client.* settings; opts are applied last.
func NewFromConfig(input TextField, output OutputRegion, notifier Notifier, opts ...Option) *Handler {
	base := []Option{
		WithBaseURL(config.GetClientBaseURL()),
		WithSequenceGuard(config.GetClientSequenceGuard()),
		WithStatusCheck(config.GetClientCheckStatus()),
		WithTimeout(config.GetClientTimeout()),
	}
	return New(input, output, notifier, append(base, opts...)...)
}

// Bind makes every activation of trigger call Handle.
func (h *Handler) Bind(trigger Trigger) {
	trigger.OnActivate(func() { h.Handle() })
}

// Handle runs one activation. The empty-input check and the notice happen
// before it returns; the request and rendering continue in the background.
func (h *Handler) Handle() *Invocation {
	inv := newInvocation(h.input.Value())

	if strings.TrimSpace(inv.City) == "" {
		inv.finish(Rejected, "", nil)
		h.notifier.Alert(EmptyInputMessage)
		return inv
	}

	h.mu.Lock()
	h.seq++
	inv.Seq = h.seq
	h.mu.Unlock()

	inv.setState(AwaitingResponse)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.run(inv)
	}()
	return inv
}

// Wait blocks until every dispatched activation has settled.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) run(inv *Invocation) {
	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	ctx, span := telemetry.Tracer("weather-widget").Start(ctx, "GET-WEATHER")
	defer span.End()
	span.SetAttributes(
		attribute.String("widget.invocation", inv.ID),
		attribute.Int64("widget.seq", int64(inv.Seq)),
	)

	fragment, err := h.lookup(ctx, inv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		h.logger.Errorw("Error fetching weather data:", "invocation", inv.ID, "city", inv.City, "error", err)
		fragment = render.FailureFragment
	}

	if !h.commit(inv.Seq, fragment) {
		h.logger.Debugw("Discarding stale weather response", "invocation", inv.ID, "seq", inv.Seq)
		inv.finish(Discarded, fragment, err)
		return
	}
	inv.finish(Rendered, fragment, err)
}

// lookup fetches and renders, turning a panic anywhere below into an error so
// that it takes the failure path like any other.
func (h *Handler) lookup(ctx context.Context, inv *Invocation) (fragment string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("weather lookup panicked: %v", r)
		}
	}()
	weather, err := h.fetch(ctx, inv.City)
	if err != nil {
		return "", err
	}
	return render.Success(weather)
}

// commit overwrites the output region unless the sequence guard finds a newer
// dispatch. Writes are serialized, so a slow SetHTML delays later commits.
func (h *Handler) commit(seq uint64, fragment string) bool {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if h.sequenceGuard && seq != h.latestSeq() {
		return false
	}
	h.output.SetHTML(fragment)
	return true
}

func (h *Handler) latestSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.seq
}
