package roadmap

import (
	"context"
	"testing"
)

type generatorMock struct {
	text string
	err  error
}

func (g generatorMock) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return g.text, g.err
}

type logMock struct{}

func (logMock) Enable(enabled bool)                   {}
func (logMock) Debug(msg string, args ...interface{}) {}
func (logMock) Info(msg string, args ...interface{})  {}
func (logMock) Warn(msg string, args ...interface{})  {}
func (logMock) Error(msg string, args ...interface{}) {}
func (logMock) Fatal(msg string, args ...interface{}) {}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare object", text: `{"title":"Go"}`, want: `{"title":"Go"}`},
		{name: "fenced json block", text: "Here you go:\n```json\n{\"title\":\"Go\"}\n```\nEnjoy!", want: `{"title":"Go"}`},
		{name: "fenced block without lang", text: "```\n{\"title\":\"Go\"}\n```", want: `{"title":"Go"}`},
		{name: "object buried in prose", text: `Sure! {"title":"Go"} hope that helps`, want: `{"title":"Go"}`},
		{name: "no json at all", text: "I cannot help with that.", wantErr: true},
		{name: "malformed object", text: `{"title": "Go"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(got) != tt.want {
				t.Errorf("ExtractJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("model output becomes a roadmap", func(t *testing.T) {
		text := "```json\n" +
			`{"title":"Go Roadmap","description":"d","category":"Programming","totalDuration":"3 months","difficulty":"Beginner",` +
			`"steps":[{"title":"Basics","description":"d","estimatedDuration":"1 week","difficulty":"Beginner"}],"tags":["go"]}` +
			"\n```"
		svc := NewService(generatorMock{text: text}, logMock{})

		res, err := svc.Generate(ctx, Query{Query: "golang"})
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if res.Fallback {
			t.Error("Generate() used fallback, want model output")
		}
		if res.Roadmap.Title != "Go Roadmap" {
			t.Errorf("title = %q, want %q", res.Roadmap.Title, "Go Roadmap")
		}
		if res.Roadmap.ID == "" {
			t.Error("roadmap ID not assigned")
		}
		step := res.Roadmap.Steps[0]
		if step.ID == "" {
			t.Error("step ID not assigned")
		}
		if step.Prerequisites == nil || step.Resources == nil || step.Skills == nil {
			t.Error("nil step slices not normalized")
		}
	})

	t.Run("generator failure falls back", func(t *testing.T) {
		svc := NewService(generatorMock{err: context.DeadlineExceeded}, logMock{})

		res, err := svc.Generate(ctx, Query{Query: "golang"})
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if !res.Fallback {
			t.Error("Generate() did not fall back")
		}
		if len(res.Roadmap.Steps) != 3 {
			t.Errorf("fallback steps = %d, want 3", len(res.Roadmap.Steps))
		}
	})

	t.Run("unparseable output falls back", func(t *testing.T) {
		svc := NewService(generatorMock{text: "sorry, no can do"}, logMock{})

		res, err := svc.Generate(ctx, Query{Query: "golang"})
		if err != nil {
			t.Fatalf("Generate() failed: %v", err)
		}
		if !res.Fallback {
			t.Error("Generate() did not fall back")
		}
	})

	t.Run("empty query is rejected", func(t *testing.T) {
		svc := NewService(generatorMock{}, logMock{})
		if _, err := svc.Generate(ctx, Query{}); err == nil {
			t.Error("Generate() accepted an empty query")
		}
	})
}
