package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"alcyxob/endurance-planner/internal/config"
)

var ErrMissingAPIKey = errors.New("gemini api key is not configured")

// GeminiGenerator drafts weeks with a Gemini model. Calls are rate limited client side
// so concurrent plan runs share the project quota.
type GeminiGenerator struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	limiter *rate.Limiter
}

func NewGeminiGenerator(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	model.ResponseMIMEType = "application/json"

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	logrus.Infof("gemini generator initialized with model %s (%d req/min)", cfg.Model, rpm)

	return &GeminiGenerator{
		client:  client,
		model:   model,
		limiter: limiter,
	}, nil
}

func (g *GeminiGenerator) GenerateWeek(ctx context.Context, req WeekRequest) (*GeneratedWeek, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, transportError(fmt.Errorf("rate limiter: %w", err))
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(RenderPrompt(req)))
	if err != nil {
		return nil, transportError(fmt.Errorf("failed to generate content: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, transportError(errors.New("no content generated"))
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			raw.WriteString(string(text))
		}
	}

	week, err := ParseWeekResponse(raw.String())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"week":    req.Week.Label,
			"attempt": req.Attempt,
		}).Debugf("unparseable generator output: %.200s", raw.String())
		return nil, err
	}
	return week, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}
