package roadmap

import (
	"github.com/trezcool/ushauri/core"
)

type (
	Resource struct {
		Type        string `json:"type"` // article | video | course | practice
		Title       string `json:"title"`
		URL         string `json:"url,omitempty"`
		Description string `json:"description"`
	}

	Step struct {
		ID                 string     `json:"id"`
		Title              string     `json:"title"`
		Description        string     `json:"description"`
		EstimatedDuration  string     `json:"estimatedDuration"`
		Difficulty         string     `json:"difficulty"`
		Prerequisites      []string   `json:"prerequisites"`
		Resources          []Resource `json:"resources"`
		Skills             []string   `json:"skills"`
		Projects           []string   `json:"projects"`
		IsCompleted        bool       `json:"isCompleted"`
		CompletionCriteria []string   `json:"completionCriteria"`
	}

	Roadmap struct {
		ID            string   `json:"id"`
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		Category      string   `json:"category"`
		TotalDuration string   `json:"totalDuration"`
		Difficulty    string   `json:"difficulty"`
		Steps         []Step   `json:"steps"`
		Tags          []string `json:"tags"`
		CreatedAt     string   `json:"createdAt"`
	}

	// Query is a learner's free-form learning goal.
	Query struct {
		Query string `json:"query" validate:"required"`
	}
)

func (q *Query) Validate() error {
	return core.Validate.Struct(q)
}
