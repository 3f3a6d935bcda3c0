package pipeline

import "github.com/zapdos-labs/videopipeline/tracing"
import "github.com/zapdos-labs/videopipeline/videoframe"

// PayloadID is a monotonically allocated, pipeline-scoped identifier. Once
// a payload is deleted its ID is never reused.
type PayloadID int64

// StageKind is a stage's type discipline: IndependentFrame stages hold only
// Frame payloads, Batch stages hold only Batch payloads.
type StageKind int

const (
	IndependentFrame StageKind = iota
	BatchStage
)

func (k StageKind) String() string {
	if k == BatchStage {
		return "batch"
	}
	return "independent_frame"
}

// payloadKind discriminates the payload tagged-variant.
type payloadKind int

const (
	payloadKindFrame payloadKind = iota
	payloadKindBatch
)

// frameUpdateEntry pairs a batch member id with the update targeting it.
type frameUpdateEntry struct {
	memberID PayloadID
	update   videoframe.FrameUpdate
}

// payloadEntry is the tagged-variant Payload from spec.md §3. Exactly one
// of the Frame-shaped or Batch-shaped field groups is meaningful, selected
// by kind.
type payloadEntry struct {
	kind payloadKind

	// Frame payload fields.
	frame        *videoframe.Frame
	frameUpdates []videoframe.FrameUpdate
	span         tracing.Span

	// Batch payload fields.
	batch        videoframe.Batch
	batchUpdates []frameUpdateEntry
	memberSpans  map[PayloadID]tracing.Span
}

func newFramePayload(f *videoframe.Frame, span tracing.Span) *payloadEntry {
	return &payloadEntry{kind: payloadKindFrame, frame: f, span: span}
}

func newBatchPayload(b videoframe.Batch, memberSpans map[PayloadID]tracing.Span) *payloadEntry {
	return &payloadEntry{kind: payloadKindBatch, batch: b, memberSpans: memberSpans}
}
