// Package roadmapsvc provides text generators backing the roadmap service.
package roadmapsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ushauri/core"
	"github.com/trezcool/ushauri/core/roadmap"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

type (
	geminiRequest struct {
		Contents []geminiContent `json:"contents"`
	}

	geminiContent struct {
		Parts []geminiPart `json:"parts"`
	}

	geminiPart struct {
		Text string `json:"text"`
	}

	geminiResponse struct {
		Candidates []struct {
			Content geminiContent `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	// GeminiGenerator calls the Google Generative Language REST API.
	GeminiGenerator struct {
		key    string
		model  string
		client *http.Client
	}
)

var _ roadmap.Generator = (*GeminiGenerator)(nil)

func NewGeminiGenerator(conf *core.Config) *GeminiGenerator {
	return &GeminiGenerator{
		key:    conf.GeminiAPIKey,
		model:  conf.GeminiModel,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *GeminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", errors.Wrap(err, "serializing request")
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, g.model, g.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling Gemini API")
	}
	defer func() { _ = res.Body.Close() }()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}
	if res.StatusCode != http.StatusOK {
		return "", errors.Errorf("Gemini API returned status %d: %s", res.StatusCode, body)
	}

	var gres geminiResponse
	if err = json.Unmarshal(body, &gres); err != nil {
		return "", errors.Wrap(err, "decoding response")
	}
	if gres.Error != nil {
		return "", errors.Errorf("Gemini API error %d: %s", gres.Error.Code, gres.Error.Message)
	}
	if len(gres.Candidates) == 0 || len(gres.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("Gemini API returned no candidates")
	}
	return gres.Candidates[0].Content.Parts[0].Text, nil
}
