package retrievalsrv

import (
	"context"
	"strings"

	"github.com/adi-uchiha/jems/pkg/kernel"
	"github.com/adi-uchiha/jems/pkg/logx"
	"github.com/adi-uchiha/jems/retrieval"
)

// RetrieverService turns a user utterance into a ranked, score-filtered list
// of job postings. Retrieval is best-effort: any embedding or index failure
// degrades to "no context" so a turn never dies because grounding did.
type RetrieverService struct {
	embedder retrieval.Embedder
	index    retrieval.VectorIndex
}

func NewRetrieverService(embedder retrieval.Embedder, index retrieval.VectorIndex) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve returns postings whose similarity score strictly exceeds minScore,
// best match first. An empty result means "no relevant context", whether
// because nothing cleared the threshold or because a dependency failed.
func (s *RetrieverService) Retrieve(ctx context.Context, queryText string, topK int, minScore float64) []retrieval.RetrievedPosting {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" || topK <= 0 {
		return nil
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, queryText)
	if err != nil {
		logx.Warnf("Retrieval degraded, embedding failed: %v", err)
		return nil
	}

	matches, err := s.index.Query(ctx, embedding, topK)
	if err != nil {
		logx.Warnf("Retrieval degraded, index query failed: %v", err)
		return nil
	}

	postings := make([]retrieval.RetrievedPosting, 0, len(matches))
	for _, m := range matches {
		// Hard cutoff: low-similarity hits mislead the generator into
		// hallucinating matches, so they never reach the prompt.
		if m.Score <= minScore {
			continue
		}
		postings = append(postings, retrieval.RetrievedPosting{
			ID:       kernel.PostingID(m.ID),
			Title:    m.Title,
			Company:  m.Company,
			Location: m.Location,
			URL:      m.URL,
			Source:   m.Source,
			Score:    m.Score,
		})
	}

	return postings
}
