package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/envup/internal/adapters/telemetry"
	"go.trai.ch/zerr"
)

// recordingRenderer records renderer callbacks for assertions.
type recordingRenderer struct {
	mu        sync.Mutex
	plans     [][]string
	started   []string
	completed []string
	errs      []error
	logs      map[string][]byte
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{logs: make(map[string][]byte)}
}

func (r *recordingRenderer) Start(_ context.Context) error { return nil }
func (r *recordingRenderer) Stop() error                   { return nil }
func (r *recordingRenderer) Wait() error                   { return nil }

func (r *recordingRenderer) OnPlanEmit(steps []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, steps)
}

func (r *recordingRenderer) OnStepStart(spanID, parentID, name string, _ time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recordingRenderer) OnStepLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs[spanID] = append(r.logs[spanID], data...)
}

func (r *recordingRenderer) OnStepComplete(spanID string, _ time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, spanID)
	r.errs = append(r.errs, err)
}

func setupTracer(t *testing.T, renderer *recordingRenderer) *telemetry.OTelTracer {
	t.Helper()

	bridge := telemetry.NewBridge(renderer)
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})

	return telemetry.NewOTelTracer("envup-test").WithRenderer(renderer)
}

func TestTracer_SpanLifecycleReachesRenderer(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	ctx, span := tracer.Start(context.Background(), "create venv")
	_ = ctx
	span.End()

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	require.Equal(t, []string{"create venv"}, renderer.started)
	require.Len(t, renderer.completed, 1)
	assert.NoError(t, renderer.errs[0])
}

func TestTracer_RecordErrorReachesRenderer(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	_, span := tracer.Start(context.Background(), "install manifest")
	span.RecordError(zerr.New("pip failed"))
	span.End()

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	require.Len(t, renderer.errs, 1)
	require.Error(t, renderer.errs[0])
	assert.Contains(t, renderer.errs[0].Error(), "pip failed")
}

func TestTracer_NestedSpansCarryParent(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	ctx, parent := tracer.Start(context.Background(), "up")
	_, child := tracer.Start(ctx, "resolve tools")
	child.End()
	parent.End()

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	assert.Equal(t, []string{"up", "resolve tools"}, renderer.started)
}

func TestTracer_SpanWritesStreamToRenderer(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	_, span := tracer.Start(context.Background(), "install manifest")
	_, err := span.Write([]byte("Collecting selenium\n"))
	require.NoError(t, err)
	span.End() // closes the batcher, forcing a final flush

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	var all []byte
	for _, data := range renderer.logs {
		all = append(all, data...)
	}
	assert.Contains(t, string(all), "Collecting selenium")
}

func TestTracer_EmitPlan(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	tracer.EmitPlan(context.Background(), []string{"resolve tools", "create venv"})

	renderer.mu.Lock()
	defer renderer.mu.Unlock()
	require.Len(t, renderer.plans, 1)
	assert.Equal(t, []string{"resolve tools", "create venv"}, renderer.plans[0])
}

func TestTracer_SpanMarksExecStart(t *testing.T) {
	renderer := newRecordingRenderer()
	tracer := setupTracer(t, renderer)

	_, span := tracer.Start(context.Background(), "create venv")
	defer span.End()

	// The executor marks the moment the external process starts on any span
	// that exposes the hook.
	starter, ok := span.(interface{ MarkExecStart() })
	require.True(t, ok, "span must expose the exec start hook")
	starter.MarkExecStart()
}

func TestBatchProcessor_FlushOnSizeLimit(t *testing.T) {
	var flushed [][]byte
	var mu sync.Mutex

	bp := telemetry.NewBatchProcessor(8, time.Hour, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		flushed = append(flushed, data)
	})
	defer func() { _ = bp.Close() }()

	_, err := bp.Write([]byte("0123456789"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 1)
	assert.Equal(t, []byte("0123456789"), flushed[0])
}

func TestBatchProcessor_FinalFlushOnClose(t *testing.T) {
	var flushed []byte
	var mu sync.Mutex

	bp := telemetry.NewBatchProcessor(1024, time.Hour, func(data []byte) {
		mu.Lock()
		defer mu.Unlock()
		flushed = append(flushed, data...)
	})

	_, err := bp.Write([]byte("tail"))
	require.NoError(t, err)
	require.NoError(t, bp.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []byte("tail"), flushed)
}

func TestBatchProcessor_WriteAfterClose(t *testing.T) {
	bp := telemetry.NewBatchProcessor(0, 0, nil)
	require.NoError(t, bp.Close())

	_, err := bp.Write([]byte("late"))
	assert.Error(t, err)
}
