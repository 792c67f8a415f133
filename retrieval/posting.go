package retrieval

import "github.com/adi-uchiha/jems/pkg/kernel"

// RetrievedPosting is one job posting returned by a similarity query.
// It lives for the duration of a single turn and is never persisted or
// cached by this module.
type RetrievedPosting struct {
	ID       kernel.PostingID `json:"id"`
	Title    string           `json:"title"`
	Company  string           `json:"company"`
	Location string           `json:"location"`
	URL      string           `json:"url"`
	Source   string           `json:"source"`
	Score    float64          `json:"score"`
}
