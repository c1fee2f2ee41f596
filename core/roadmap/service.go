// Package roadmap turns a free-form learning goal into a structured,
// trackable learning path using a generative text model. Generation is best
// effort: any model or parsing failure falls back to a canned three-step
// path so the caller always gets a usable roadmap.
package roadmap

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/trezcool/ushauri/core"
)

type (
	// Generator produces raw text from a prompt; implementations wrap a
	// concrete model API.
	Generator interface {
		GenerateContent(ctx context.Context, prompt string) (string, error)
	}

	// Result wraps a roadmap and flags whether it came from the fallback.
	Result struct {
		Roadmap  Roadmap
		Fallback bool
	}

	Service interface {
		Generate(ctx context.Context, q Query) (Result, error)
	}

	service struct {
		gen Generator
		log core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(gen Generator, log core.Logger) Service {
	return &service{
		gen: gen,
		log: log,
	}
}

func (svc *service) Generate(ctx context.Context, q Query) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}

	text, err := svc.gen.GenerateContent(ctx, buildPrompt(q.Query))
	if err != nil {
		svc.log.Error(fmt.Sprintf("generating roadmap: %v", err), err)
		return Result{Roadmap: fallbackRoadmap(q.Query), Fallback: true}, nil
	}

	var rm Roadmap
	raw, err := ExtractJSON(text)
	if err == nil {
		err = json.Unmarshal(raw, &rm)
	}
	if err != nil || len(rm.Steps) == 0 {
		svc.log.Error(fmt.Sprintf("parsing generated roadmap: %v", err), err)
		return Result{Roadmap: fallbackRoadmap(q.Query), Fallback: true}, nil
	}

	finalize(&rm)
	return Result{Roadmap: rm}, nil
}

var fencedJSONRegex = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*\\})\\s*```")

// ExtractJSON pulls a JSON object out of model output: the whole text,
// then a fenced code block, then the outermost brace pair.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	if m := fencedJSONRegex.FindStringSubmatch(text); m != nil {
		if json.Valid([]byte(m[1])) {
			return json.RawMessage(m[1]), nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, fmt.Errorf("no valid JSON found in response")
}

// finalize assigns IDs, stamps the creation time and normalizes nil slices
// so the JSON output always carries arrays.
func finalize(rm *Roadmap) {
	rm.ID = fmt.Sprintf("roadmap_%d_%s", time.Now().UnixNano()/int64(time.Millisecond), randString(9))
	rm.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if rm.Tags == nil {
		rm.Tags = []string{}
	}
	for i := range rm.Steps {
		step := &rm.Steps[i]
		step.ID = fmt.Sprintf("step_%d_%s", i+1, randString(6))
		step.IsCompleted = false
		if step.Prerequisites == nil {
			step.Prerequisites = []string{}
		}
		if step.Resources == nil {
			step.Resources = []Resource{}
		}
		if step.Skills == nil {
			step.Skills = []string{}
		}
		if step.Projects == nil {
			step.Projects = []string{}
		}
		if step.CompletionCriteria == nil {
			step.CompletionCriteria = []string{}
		}
	}
}

const randChars = "abcdefghijklmnopqrstuvwxyz0123456789"

func randString(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(randChars))))
		if err != nil {
			sb.WriteByte(randChars[i%len(randChars)])
			continue
		}
		sb.WriteByte(randChars[idx.Int64()])
	}
	return sb.String()
}

func buildPrompt(query string) string {
	return fmt.Sprintf(`
Create a comprehensive, step-by-step learning roadmap for "%s".

Please provide a detailed JSON response with the following structure:
{
  "title": "Complete roadmap title",
  "description": "Brief overview of what this roadmap covers",
  "category": "Main category (e.g., Programming, Design, Marketing)",
  "totalDuration": "Estimated total time (e.g., 6-8 months)",
  "difficulty": "Beginner/Intermediate/Advanced",
  "steps": [
    {
      "title": "Step title",
      "description": "Detailed description of what to learn in this step",
      "estimatedDuration": "Time needed for this step (e.g., 2-3 weeks)",
      "difficulty": "Beginner/Intermediate/Advanced",
      "prerequisites": ["List of prerequisites"],
      "resources": [
        {
          "type": "article/video/course/practice",
          "title": "Resource title",
          "description": "What this resource covers"
        }
      ],
      "skills": ["Skills gained in this step"],
      "projects": ["Practical projects to complete"],
      "completionCriteria": ["How to know you've mastered this step"]
    }
  ],
  "tags": ["Relevant tags for categorization"]
}

Requirements:
1. Create 8-12 detailed steps that build upon each other
2. Each step should be specific and actionable
3. Include practical projects for hands-on learning
4. Provide clear completion criteria for tracking progress
5. Suggest realistic timeframes
6. Include diverse resource types (articles, videos, courses, practice)
7. Make it suitable for someone starting from the specified level
8. Ensure logical progression from basics to advanced concepts

Make the roadmap comprehensive, practical, and trackable. Focus on real-world application and skill development.
`, query)
}

func fallbackRoadmap(query string) Roadmap {
	subject := query
	title := query
	if subject == "" {
		subject = "new skills"
		title = "Learning"
	}
	return Roadmap{
		ID:            fmt.Sprintf("roadmap_%d_fallback", time.Now().UnixNano()/int64(time.Millisecond)),
		Title:         fmt.Sprintf("%s Learning Path", title),
		Description:   fmt.Sprintf("A structured approach to learning %s", subject),
		Category:      "General",
		TotalDuration: "3-6 months",
		Difficulty:    "Beginner",
		Steps: []Step{
			{
				ID:                "step_1_basics",
				Title:             "Fundamentals",
				Description:       fmt.Sprintf("Learn the basic concepts and principles of %s", subject),
				EstimatedDuration: "2-3 weeks",
				Difficulty:        "Beginner",
				Prerequisites:     []string{},
				Resources: []Resource{
					{Type: "article", Title: "Getting Started Guide", Description: "Introduction to basic concepts"},
				},
				Skills:             []string{"Basic understanding", "Core concepts"},
				Projects:           []string{"Hello World project"},
				CompletionCriteria: []string{"Understand basic terminology", "Complete introductory exercises"},
			},
			{
				ID:                "step_2_intermediate",
				Title:             "Intermediate Concepts",
				Description:       fmt.Sprintf("Dive deeper into %s with practical applications", subject),
				EstimatedDuration: "3-4 weeks",
				Difficulty:        "Intermediate",
				Prerequisites:     []string{"Fundamentals"},
				Resources: []Resource{
					{Type: "course", Title: "Intermediate Course", Description: "Advanced concepts and techniques"},
				},
				Skills:             []string{"Intermediate techniques", "Problem solving"},
				Projects:           []string{"Practical project"},
				CompletionCriteria: []string{"Build a functional project", "Understand advanced concepts"},
			},
			{
				ID:                "step_3_advanced",
				Title:             "Advanced Application",
				Description:       fmt.Sprintf("Master advanced %s techniques and best practices", subject),
				EstimatedDuration: "4-6 weeks",
				Difficulty:        "Advanced",
				Prerequisites:     []string{"Fundamentals", "Intermediate Concepts"},
				Resources: []Resource{
					{Type: "practice", Title: "Advanced Challenges", Description: "Complex problems and solutions"},
				},
				Skills:             []string{"Expert-level knowledge", "Best practices"},
				Projects:           []string{"Capstone project"},
				CompletionCriteria: []string{"Complete advanced project", "Demonstrate mastery"},
			},
		},
		Tags:      []string{strings.ToLower(subject)},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
