package pipeline

import (
	"fmt"
	"sync"

	"github.com/zapdos-labs/videopipeline/tracing"
	"github.com/zapdos-labs/videopipeline/videoframe"
)

// stage is a typed queue of payloads addressable by PayloadID. Mutation is
// serialized under mu; reads take the read lock for the lookup only. The
// frame pointers, batch maps and span maps that getters return are the
// stored values themselves, not copies.
type stage struct {
	name string
	kind StageKind

	mu       sync.RWMutex
	payloads map[PayloadID]*payloadEntry
}

func newStage(name string, kind StageKind) *stage {
	return &stage{name: name, kind: kind, payloads: make(map[PayloadID]*payloadEntry)}
}

func (s *stage) addFramePayload(id PayloadID, p *payloadEntry) error {
	if s.kind != IndependentFrame {
		return fmt.Errorf("stage %q: %w", s.name, ErrWrongStageKind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payloads[id]; exists {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrDuplicateID)
	}
	s.payloads[id] = p
	return nil
}

func (s *stage) addBatchPayload(id PayloadID, p *payloadEntry) error {
	if s.kind != BatchStage {
		return fmt.Errorf("stage %q: %w", s.name, ErrWrongStageKind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payloads[id]; exists {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrDuplicateID)
	}
	s.payloads[id] = p
	return nil
}

// addPayloads bulk-inserts; all-or-nothing against stage kind, and no
// partial result is visible to other readers mid-call (insertion happens
// entirely under a single write-lock critical section).
func (s *stage) addPayloads(items map[PayloadID]*payloadEntry) error {
	for _, p := range items {
		wantKind := payloadKindFrame
		if s.kind == BatchStage {
			wantKind = payloadKindBatch
		}
		if p.kind != wantKind {
			return fmt.Errorf("stage %q: %w", s.name, ErrWrongStageKind)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range items {
		if _, exists := s.payloads[id]; exists {
			return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrDuplicateID)
		}
	}
	for id, p := range items {
		s.payloads[id] = p
	}
	return nil
}

func (s *stage) delete(id PayloadID) (*payloadEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[id]
	if ok {
		delete(s.payloads, id)
	}
	return p, ok
}

func (s *stage) deleteMany(ids []PayloadID) map[PayloadID]*payloadEntry {
	out := make(map[PayloadID]*payloadEntry, len(ids))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if p, ok := s.payloads[id]; ok {
			out[id] = p
			delete(s.payloads, id)
		}
	}
	return out
}

func (s *stage) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payloads)
}

func (s *stage) get(id PayloadID) (*payloadEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[id]
	return p, ok
}

func (s *stage) addFrameUpdate(id PayloadID, update videoframe.FrameUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[id]
	if !ok {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrNotFound)
	}
	if p.kind != payloadKindFrame {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrWrongPayload)
	}
	p.frameUpdates = append(p.frameUpdates, update)
	return nil
}

func (s *stage) addBatchedFrameUpdate(batchID, memberID PayloadID, update videoframe.FrameUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[batchID]
	if !ok {
		return fmt.Errorf("stage %q, batch %d: %w", s.name, batchID, ErrNotFound)
	}
	if p.kind != payloadKindBatch {
		return fmt.Errorf("stage %q, batch %d: %w", s.name, batchID, ErrWrongPayload)
	}
	if _, ok := p.batch[int64(memberID)]; !ok {
		return fmt.Errorf("stage %q, batch %d, member %d: %w", s.name, batchID, memberID, ErrNotFound)
	}
	p.batchUpdates = append(p.batchUpdates, frameUpdateEntry{memberID: memberID, update: update})
	return nil
}

func (s *stage) getIndependentFrame(id PayloadID) (*videoframe.Frame, tracing.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[id]
	if !ok {
		return nil, nil, fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrNotFound)
	}
	if p.kind != payloadKindFrame {
		return nil, nil, fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrWrongPayload)
	}
	return p.frame, p.span, nil
}

func (s *stage) getBatchedFrame(batchID, memberID PayloadID) (*videoframe.Frame, tracing.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[batchID]
	if !ok {
		return nil, nil, fmt.Errorf("stage %q, batch %d: %w", s.name, batchID, ErrNotFound)
	}
	if p.kind != payloadKindBatch {
		return nil, nil, fmt.Errorf("stage %q, batch %d: %w", s.name, batchID, ErrWrongPayload)
	}
	f, ok := p.batch[int64(memberID)]
	if !ok {
		return nil, nil, fmt.Errorf("stage %q, batch %d, member %d: %w", s.name, batchID, memberID, ErrNotFound)
	}
	return f, p.memberSpans[memberID], nil
}

func (s *stage) getBatch(id PayloadID) (videoframe.Batch, map[PayloadID]tracing.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[id]
	if !ok {
		return nil, nil, fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrNotFound)
	}
	if p.kind != payloadKindBatch {
		return nil, nil, fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrWrongPayload)
	}
	return p.batch, p.memberSpans, nil
}

func (s *stage) applyUpdates(id PayloadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[id]
	if !ok {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrNotFound)
	}
	switch p.kind {
	case payloadKindFrame:
		for _, u := range p.frameUpdates {
			u.Apply(p.frame)
		}
	case payloadKindBatch:
		for _, e := range p.batchUpdates {
			if f, ok := p.batch[int64(e.memberID)]; ok {
				e.update.Apply(f)
			}
		}
	}
	return nil
}

func (s *stage) clearUpdates(id PayloadID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payloads[id]
	if !ok {
		return fmt.Errorf("stage %q, id %d: %w", s.name, id, ErrNotFound)
	}
	switch p.kind {
	case payloadKindFrame:
		p.frameUpdates = nil
	case payloadKindBatch:
		p.batchUpdates = nil
	}
	return nil
}

func (s *stage) accessObjects(frameID PayloadID, query videoframe.ObjectQuery) ([]*videoframe.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payloads[frameID]
	if !ok {
		return nil, fmt.Errorf("stage %q, id %d: %w", s.name, frameID, ErrNotFound)
	}
	if p.kind != payloadKindFrame {
		return nil, fmt.Errorf("stage %q, id %d: %w", s.name, frameID, ErrWrongPayload)
	}
	return p.frame.AccessObjects(query), nil
}
