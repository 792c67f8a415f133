package retrievalsrv

import (
	"context"
	"errors"
	"testing"

	"github.com/adi-uchiha/jems/retrieval"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeIndex struct {
	matches []retrieval.IndexMatch
	err     error
	gotTopK int
}

func (f *fakeIndex) Query(ctx context.Context, embedding []float32, topK int) ([]retrieval.IndexMatch, error) {
	f.gotTopK = topK
	return f.matches, f.err
}

func match(id string, score float64) retrieval.IndexMatch {
	return retrieval.IndexMatch{
		ID:       id,
		Score:    score,
		Title:    "Engineer " + id,
		Company:  "Acme",
		Location: "Remote",
		URL:      "https://jobs/" + id,
		Source:   "board",
	}
}

func TestRetrieve_HardCutoffExcludesAtOrBelowThreshold(t *testing.T) {
	index := &fakeIndex{matches: []retrieval.IndexMatch{
		match("a", 0.92),
		match("b", 0.5), // exactly at threshold, must be dropped
		match("c", 0.49),
		match("d", 0.51),
	}}
	svc := NewRetrieverService(&fakeEmbedder{vector: []float32{0.1}}, index)

	got := svc.Retrieve(context.Background(), "find me react jobs", 4, 0.5)
	if len(got) != 2 {
		t.Fatalf("expected 2 postings above threshold, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "d" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if index.gotTopK != 4 {
		t.Fatalf("expected topK 4 passed through, got %d", index.gotTopK)
	}
}

func TestRetrieve_EmbeddingFailureDegradesToEmpty(t *testing.T) {
	svc := NewRetrieverService(
		&fakeEmbedder{err: errors.New("embedding service down")},
		&fakeIndex{matches: []retrieval.IndexMatch{match("a", 0.9)}},
	)

	got := svc.Retrieve(context.Background(), "golang backend", 5, 0.5)
	if len(got) != 0 {
		t.Fatalf("expected empty result on embedding failure, got %d", len(got))
	}
}

func TestRetrieve_IndexFailureDegradesToEmpty(t *testing.T) {
	svc := NewRetrieverService(
		&fakeEmbedder{vector: []float32{0.2}},
		&fakeIndex{err: errors.New("index unavailable")},
	)

	got := svc.Retrieve(context.Background(), "golang backend", 5, 0.5)
	if len(got) != 0 {
		t.Fatalf("expected empty result on index failure, got %d", len(got))
	}
}

func TestRetrieve_EmptyQuerySkipsEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.2}}
	svc := NewRetrieverService(embedder, &fakeIndex{})

	if got := svc.Retrieve(context.Background(), "   ", 5, 0.5); len(got) != 0 {
		t.Fatalf("expected empty result for blank query, got %d", len(got))
	}
	if embedder.calls != 0 {
		t.Fatalf("blank query must not hit the embedding service")
	}
}

func TestRetrieve_MapsMetadata(t *testing.T) {
	index := &fakeIndex{matches: []retrieval.IndexMatch{{
		ID:       "p1",
		Score:    0.88,
		Title:    "Unknown",
		Company:  "Unknown",
		Location: "Unknown",
		URL:      "",
		Source:   "",
	}}}
	svc := NewRetrieverService(&fakeEmbedder{vector: []float32{0.3}}, index)

	got := svc.Retrieve(context.Background(), "anything", 1, 0.1)
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
	p := got[0]
	if p.Title != "Unknown" || p.Company != "Unknown" || p.URL != "" {
		t.Fatalf("placeholder metadata not preserved: %+v", p)
	}
	if p.Score != 0.88 {
		t.Fatalf("score not carried: %v", p.Score)
	}
}
