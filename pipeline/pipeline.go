// Package pipeline implements the coordination core of the video-analytics
// processing graph: a fixed, ordered list of named stages, atomic payload
// ID/frame counters, and the movement operations (as-is, pack-to-batch,
// unpack-from-batch) that move frames and batches between them while
// preserving per-payload update logs and tracing-span lifecycle.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zapdos-labs/videopipeline/tracing"
	"github.com/zapdos-labs/videopipeline/videoframe"
)

// StageSpec describes one stage at construction time.
type StageSpec struct {
	Name string
	Kind StageKind
}

const defaultRootSpanName = "video_pipeline"

// Pipeline is the coordination core's top-level object: an ordered list of
// stages plus the shared counters, location map and root-span map the
// movement operations mutate. Construct once per pipeline instance and
// share the pointer; every exported method is safe for concurrent use.
type Pipeline struct {
	tracer  tracing.Tracer
	metrics MetricsSink

	stages    []*stage
	nameIndex map[string]int

	idCounter    atomic.Int64
	frameCounter atomic.Int64

	locMu     sync.RWMutex
	locations map[PayloadID]int

	spanMu    sync.RWMutex
	rootSpans map[PayloadID]tracing.Span

	rootSpanName   *onceString
	samplingPeriod *onceInt
}

// New constructs a pipeline with the given ordered stages. Fails with
// ErrDuplicateStage if two stages share a name.
func New(tracer tracing.Tracer, specs []StageSpec) (*Pipeline, error) {
	if tracer == nil {
		tracer = tracing.NoopTracer{}
	}
	p := &Pipeline{
		tracer:         tracer,
		metrics:        noopMetricsSink{},
		nameIndex:      make(map[string]int, len(specs)),
		locations:      make(map[PayloadID]int),
		rootSpans:      make(map[PayloadID]tracing.Span),
		rootSpanName:   newOnceString(defaultRootSpanName),
		samplingPeriod: newOnceInt(0),
	}
	for _, spec := range specs {
		if _, exists := p.nameIndex[spec.Name]; exists {
			return nil, fmt.Errorf("stage %q: %w", spec.Name, ErrDuplicateStage)
		}
		p.nameIndex[spec.Name] = len(p.stages)
		p.stages = append(p.stages, newStage(spec.Name, spec.Kind))
	}
	return p, nil
}

// SetRootSpanName sets the root span name; succeeds at most once.
func (p *Pipeline) SetRootSpanName(name string) error { return p.rootSpanName.Set(name) }

// GetRootSpanName returns the configured root span name, or the default.
func (p *Pipeline) GetRootSpanName() string { return p.rootSpanName.Get() }

// SetSamplingPeriod sets the sampling period; succeeds at most once.
func (p *Pipeline) SetSamplingPeriod(period int64) error { return p.samplingPeriod.Set(period) }

// GetSamplingPeriod returns the configured sampling period, default 0.
func (p *Pipeline) GetSamplingPeriod() int64 { return p.samplingPeriod.Get() }

// GetStageType returns the kind of the named stage.
func (p *Pipeline) GetStageType(name string) (StageKind, error) {
	idx, ok := p.nameIndex[name]
	if !ok {
		return 0, fmt.Errorf("stage %q: %w", name, ErrNotFound)
	}
	return p.stages[idx].kind, nil
}

// GetStageQueueLen returns the number of payloads currently in the named
// stage.
func (p *Pipeline) GetStageQueueLen(name string) (int, error) {
	idx, ok := p.nameIndex[name]
	if !ok {
		return 0, fmt.Errorf("stage %q: %w", name, ErrNotFound)
	}
	return p.stages[idx].len(), nil
}

// GetIdLocationsLen exposes the size of the payload-location map for
// diagnostics.
func (p *Pipeline) GetIdLocationsLen() int {
	p.locMu.RLock()
	defer p.locMu.RUnlock()
	return len(p.locations)
}

// findStageForward resolves name to a stage whose index is >= startFrom,
// enforcing forward-only movement: passing a movement's own source index
// + 1 as startFrom rejects same-stage and backward moves.
func (p *Pipeline) findStageForward(name string, startFrom int) (*stage, int, error) {
	idx, ok := p.nameIndex[name]
	if !ok {
		return nil, 0, fmt.Errorf("stage %q: %w", name, ErrNotFound)
	}
	if idx < startFrom {
		return nil, 0, fmt.Errorf("stage %q: %w", name, ErrForwardOnlyViolation)
	}
	return p.stages[idx], idx, nil
}

func (p *Pipeline) getStageForID(id PayloadID) (int, error) {
	p.locMu.RLock()
	defer p.locMu.RUnlock()
	idx, ok := p.locations[id]
	if !ok {
		return 0, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return idx, nil
}

// checkIDsInSameStage resolves every id to a stage index and fails unless
// all of them agree. Returns EmptyIds for an empty slice, MixedStages on
// disagreement.
func (p *Pipeline) checkIDsInSameStage(ids []PayloadID) (int, error) {
	if len(ids) == 0 {
		return 0, ErrEmptyIDs
	}
	p.locMu.RLock()
	defer p.locMu.RUnlock()
	first, ok := p.locations[ids[0]]
	if !ok {
		return 0, fmt.Errorf("id %d: %w", ids[0], ErrNotFound)
	}
	for _, id := range ids[1:] {
		idx, ok := p.locations[id]
		if !ok {
			return 0, fmt.Errorf("id %d: %w", id, ErrNotFound)
		}
		if idx != first {
			return 0, ErrMixedStages
		}
	}
	return first, nil
}

// newStageSpan opens a span named name as a child of id's current root
// span, or returns tracing.Invalid if that root is itself invalid.
func (p *Pipeline) newStageSpan(ctx context.Context, id PayloadID, name string) tracing.Span {
	p.spanMu.RLock()
	root, ok := p.rootSpans[id]
	p.spanMu.RUnlock()
	if !ok || !root.Valid() {
		return tracing.Invalid
	}
	return p.tracer.Child(ctx, root, name)
}

// AddFrame ingresses a frame into stageName, computing the root span from
// the configured sampling period. See spec.md §4.2.
func (p *Pipeline) AddFrame(ctx context.Context, stageName string, frame *videoframe.Frame) (PayloadID, error) {
	period := p.samplingPeriod.Get()
	next := p.frameCounter.Load() + 1
	parent := tracing.Invalid
	if shouldSample(next, period) {
		parent = p.tracer.Root(ctx, p.rootSpanName.Get())
	}
	return p.AddFrameWithTelemetry(ctx, stageName, frame, parent)
}

// AddFrameWithTelemetry ingresses a frame under an externally supplied
// parent tracing context instead of deriving one from the sampling
// period. When parentCtx is valid, the payload's stored root span is a
// fresh span named GetRootSpanName(), opened as a child of parentCtx —
// callers that route an already-sampled external trace through AddFrame's
// own Root() span will see that root nested one level under it; this
// double nesting mirrors the reference implementation's behavior.
func (p *Pipeline) AddFrameWithTelemetry(ctx context.Context, stageName string, frame *videoframe.Frame, parentCtx tracing.Span) (PayloadID, error) {
	if parentCtx == nil {
		parentCtx = tracing.Invalid
	}
	st, idx, err := p.findStageForward(stageName, 0)
	if err != nil {
		return 0, err
	}
	if st.kind != IndependentFrame {
		return 0, fmt.Errorf("stage %q: %w", stageName, ErrWrongStageKind)
	}

	p.frameCounter.Add(1)
	id := PayloadID(p.idCounter.Add(1))

	root := tracing.Invalid
	if parentCtx.Valid() {
		root = p.tracer.Child(ctx, parentCtx, p.rootSpanName.Get())
	}
	p.spanMu.Lock()
	p.rootSpans[id] = root
	p.spanMu.Unlock()

	stageSpan := p.newStageSpan(ctx, id, fmt.Sprintf("add/%s", stageName))
	entry := newFramePayload(frame, stageSpan)
	if err := st.addFramePayload(id, entry); err != nil {
		p.spanMu.Lock()
		delete(p.rootSpans, id)
		p.spanMu.Unlock()
		return 0, err
	}

	p.locMu.Lock()
	p.locations[id] = idx
	p.locMu.Unlock()

	p.metrics.IncPayloadsIngested()
	p.metrics.SetStageQueueLen(stageName, st.len())

	return id, nil
}

// AddFrameUpdate appends an update to a Frame payload's update list.
func (p *Pipeline) AddFrameUpdate(id PayloadID, update videoframe.FrameUpdate) error {
	idx, err := p.getStageForID(id)
	if err != nil {
		return err
	}
	return p.stages[idx].addFrameUpdate(id, update)
}

// AddBatchedFrameUpdate appends an update targeting a batch member.
func (p *Pipeline) AddBatchedFrameUpdate(batchID, memberID PayloadID, update videoframe.FrameUpdate) error {
	idx, err := p.getStageForID(batchID)
	if err != nil {
		return err
	}
	return p.stages[idx].addBatchedFrameUpdate(batchID, memberID, update)
}

// ApplyUpdates invokes the deferred updates stored against id.
func (p *Pipeline) ApplyUpdates(id PayloadID) error {
	idx, err := p.getStageForID(id)
	if err != nil {
		return err
	}
	return p.stages[idx].applyUpdates(id)
}

// ClearUpdates empties id's update list. Calling it twice is idempotent.
func (p *Pipeline) ClearUpdates(id PayloadID) error {
	idx, err := p.getStageForID(id)
	if err != nil {
		return err
	}
	return p.stages[idx].clearUpdates(id)
}

// GetIndependentFrame returns a Frame payload's value and current span.
func (p *Pipeline) GetIndependentFrame(id PayloadID) (*videoframe.Frame, tracing.Span, error) {
	idx, err := p.getStageForID(id)
	if err != nil {
		return nil, nil, err
	}
	return p.stages[idx].getIndependentFrame(id)
}

// GetBatchedFrame returns one member's frame value and span from a batch.
func (p *Pipeline) GetBatchedFrame(batchID, memberID PayloadID) (*videoframe.Frame, tracing.Span, error) {
	idx, err := p.getStageForID(batchID)
	if err != nil {
		return nil, nil, err
	}
	return p.stages[idx].getBatchedFrame(batchID, memberID)
}

// GetBatch returns a batch's frames and per-member span map.
func (p *Pipeline) GetBatch(batchID PayloadID) (videoframe.Batch, map[PayloadID]tracing.Span, error) {
	idx, err := p.getStageForID(batchID)
	if err != nil {
		return nil, nil, err
	}
	return p.stages[idx].getBatch(batchID)
}

// AccessObjects delegates an object query to the owning frame.
func (p *Pipeline) AccessObjects(frameID PayloadID, query videoframe.ObjectQuery) ([]*videoframe.Object, error) {
	idx, err := p.getStageForID(frameID)
	if err != nil {
		return nil, err
	}
	return p.stages[idx].accessObjects(frameID, query)
}

// Delete removes a payload from its owning stage, ending its stage span(s)
// and returning the payload's root span(s) keyed by member id (a single
// entry for a Frame payload).
func (p *Pipeline) Delete(id PayloadID) (map[PayloadID]tracing.Span, error) {
	p.locMu.Lock()
	idx, ok := p.locations[id]
	if ok {
		delete(p.locations, id)
	}
	p.locMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	entry, ok := p.stages[idx].delete(id)
	if !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}

	result := make(map[PayloadID]tracing.Span)
	p.spanMu.Lock()
	switch entry.kind {
	case payloadKindFrame:
		entry.span.End()
		result[id] = p.rootSpans[id]
		delete(p.rootSpans, id)
		p.metrics.IncPayloadsDeleted()
	case payloadKindBatch:
		for mid, sp := range entry.memberSpans {
			sp.End()
			result[mid] = p.rootSpans[mid]
			delete(p.rootSpans, mid)
			p.metrics.IncPayloadsDeleted()
		}
	}
	p.spanMu.Unlock()

	p.metrics.SetStageQueueLen(p.stages[idx].name, p.stages[idx].len())
	return result, nil
}

// MoveAsIs moves payloads between stages of the same kind without
// repacking. All ids must currently live in the same source stage; spans
// are rotated per member (per spec.md §9's Open Question resolution: a
// batch's member spans each rotate independently, not once per batch).
func (p *Pipeline) MoveAsIs(ctx context.Context, destName string, ids []PayloadID) error {
	srcIdx, err := p.checkIDsInSameStage(ids)
	if err != nil {
		return err
	}
	srcStage := p.stages[srcIdx]
	destStage, destIdx, err := p.findStageForward(destName, srcIdx+1)
	if err != nil {
		return err
	}
	if srcStage.kind != destStage.kind {
		return fmt.Errorf("move to %q: %w", destName, ErrWrongStageKind)
	}

	removed := srcStage.deleteMany(ids)
	for id, entry := range removed {
		switch entry.kind {
		case payloadKindFrame:
			entry.span.End()
			entry.span = p.newStageSpan(ctx, id, fmt.Sprintf("stage/%s", destName))
		case payloadKindBatch:
			rotated := make(map[PayloadID]tracing.Span, len(entry.memberSpans))
			for mid, sp := range entry.memberSpans {
				sp.End()
				rotated[mid] = p.newStageSpan(ctx, mid, fmt.Sprintf("stage/%s", destName))
			}
			entry.memberSpans = rotated
		}
	}
	if err := destStage.addPayloads(removed); err != nil {
		return err
	}

	p.locMu.Lock()
	for _, id := range ids {
		p.locations[id] = destIdx
	}
	p.locMu.Unlock()

	p.metrics.SetStageQueueLen(srcStage.name, srcStage.len())
	p.metrics.SetStageQueueLen(destStage.name, destStage.len())
	return nil
}

// MoveAndPackFrames packs a set of independent frames into a new batch in
// destName. The batch ID is allocated fresh; each member's own update list
// is folded into the batch's (memberID, update) list.
func (p *Pipeline) MoveAndPackFrames(ctx context.Context, destName string, frameIDs []PayloadID) (PayloadID, error) {
	srcIdx, err := p.checkIDsInSameStage(frameIDs)
	if err != nil {
		return 0, err
	}
	srcStage := p.stages[srcIdx]
	destStage, destIdx, err := p.findStageForward(destName, srcIdx+1)
	if err != nil {
		return 0, err
	}
	if srcStage.kind != IndependentFrame || destStage.kind != BatchStage {
		return 0, fmt.Errorf("pack into %q: %w", destName, ErrWrongStageKind)
	}

	batch := videoframe.Batch{}
	memberSpans := make(map[PayloadID]tracing.Span, len(frameIDs))
	var batchUpdates []frameUpdateEntry

	for _, id := range frameIDs {
		entry, ok := srcStage.delete(id)
		if !ok {
			return 0, fmt.Errorf("id %d: %w", id, ErrNotFound)
		}
		if entry.kind != payloadKindFrame {
			return 0, fmt.Errorf("id %d: %w", id, ErrWrongPayload)
		}
		batch[int64(id)] = entry.frame
		for _, u := range entry.frameUpdates {
			batchUpdates = append(batchUpdates, frameUpdateEntry{memberID: id, update: u})
		}
		entry.span.End()
		memberSpans[id] = p.newStageSpan(ctx, id, fmt.Sprintf("stage/%s", destName))
	}

	batchID := PayloadID(p.idCounter.Add(1))
	payload := newBatchPayload(batch, memberSpans)
	payload.batchUpdates = batchUpdates
	if err := destStage.addBatchPayload(batchID, payload); err != nil {
		return 0, err
	}

	p.locMu.Lock()
	for _, id := range frameIDs {
		p.locations[id] = destIdx
	}
	p.locations[batchID] = destIdx
	p.locMu.Unlock()

	p.metrics.SetStageQueueLen(srcStage.name, srcStage.len())
	p.metrics.SetStageQueueLen(destStage.name, destStage.len())
	return batchID, nil
}

// MoveAndUnpackBatch unpacks a batch into independent frames in destName.
// Each member starts with an empty update list; batch-level updates are
// then routed to their member, failing if a memberID isn't in the batch.
func (p *Pipeline) MoveAndUnpackBatch(ctx context.Context, destName string, batchID PayloadID) ([]PayloadID, error) {
	srcIdx, err := p.getStageForID(batchID)
	if err != nil {
		return nil, err
	}
	srcStage := p.stages[srcIdx]
	destStage, destIdx, err := p.findStageForward(destName, srcIdx+1)
	if err != nil {
		return nil, err
	}
	if srcStage.kind != BatchStage || destStage.kind != IndependentFrame {
		return nil, fmt.Errorf("unpack into %q: %w", destName, ErrWrongStageKind)
	}

	entry, ok := srcStage.delete(batchID)
	if !ok {
		return nil, fmt.Errorf("batch %d: %w", batchID, ErrNotFound)
	}
	if entry.kind != payloadKindBatch {
		return nil, fmt.Errorf("batch %d: %w", batchID, ErrWrongPayload)
	}

	p.locMu.Lock()
	delete(p.locations, batchID)
	p.locMu.Unlock()

	frameIDs := make([]PayloadID, 0, len(entry.batch))
	newPayloads := make(map[PayloadID]*payloadEntry, len(entry.batch))
	for k, frame := range entry.batch {
		mid := PayloadID(k)
		frameIDs = append(frameIDs, mid)
		if sp := entry.memberSpans[mid]; sp != nil {
			sp.End()
		}
		newSpan := p.newStageSpan(ctx, mid, fmt.Sprintf("stage/%s", destName))
		newPayloads[mid] = newFramePayload(frame, newSpan)
	}

	for _, bu := range entry.batchUpdates {
		fp, ok := newPayloads[bu.memberID]
		if !ok {
			return nil, fmt.Errorf("member %d: %w", bu.memberID, ErrNotFound)
		}
		fp.frameUpdates = append(fp.frameUpdates, bu.update)
	}

	if err := destStage.addPayloads(newPayloads); err != nil {
		return nil, err
	}

	p.locMu.Lock()
	for _, id := range frameIDs {
		p.locations[id] = destIdx
	}
	p.locMu.Unlock()

	p.metrics.SetStageQueueLen(srcStage.name, srcStage.len())
	p.metrics.SetStageQueueLen(destStage.name, destStage.len())
	return frameIDs, nil
}
