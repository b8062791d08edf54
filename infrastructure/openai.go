package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"talentvibe/domain"
	"talentvibe/logger"
)

const evaluationSystemPrompt = "You are a helpful assistant that provides analysis in a structured JSON format according to the user's schema."

const evaluationPromptTemplate = `
You are an expert talent acquisition specialist with a keen eye for technical and professional roles.
Analyze the following resume against the provided job description and return a JSON object that strictly follows the specified schema.

**Output Schema:**
Your entire response MUST be a single JSON object. Do not include any text outside of this JSON.
The JSON must have the following structure:
{
  "candidate_name": "The full name of the candidate as extracted from the resume. Make a best effort to find the name. If it is truly not available, return 'Name Not Found'.",
  "fit_score": "An integer from 0-100 representing the candidate's overall fit for the role.",
  "bucket": "A string categorizing the candidate. Choose from: '🚀 Green-Room Rocket' (top-tier, >90), '⚡ Book-the-Call' (strong candidate, 80-89), '🛠️ Bench Prospect' (potential but with gaps, 65-79), or '🗄️ Swipe-Left Archive' (not a fit, <65).",
  "reasoning": "A concise, one-sentence explanation for the assigned bucket and score.",
  "summary_points": ["An array of 2-3 string bullet points summarizing the candidate's key strengths and experiences relevant to the job."],
  "skill_matrix": {
    "matches": ["An array of strings listing skills from the job description that the candidate demonstrably has."],
    "gaps": ["An array of strings listing critical skills from the job description that appear to be missing."]
  },
  "timeline": [
    {
      "period": "e.g., 2022-Now",
      "role": "e.g., Sr. ML Eng, Acme AI",
      "details": "A brief but impactful summary of their accomplishment in that role."
    }
  ],
  "logistics": {
    "compensation": "Extract desired compensation if available, otherwise 'Not specified'.",
    "notice_period": "Extract notice period if available, otherwise 'Not specified'.",
    "work_authorization": "Extract work authorization if available, otherwise 'Not specified'.",
    "location": "Extract current location or relocation preferences if available, otherwise 'Not specified'."
  }
}

---
**Job Description:**
%s
---
**Resume:**
%s
---
`

// OpenAIEvaluator scores one resume against a job description through the
// OpenAI chat API. Any transport or decoding failure collapses into the
// sentinel payload; the caller treats that as a terminal, non-retryable
// outcome for the item (beyond the client's own optional retry budget).
type OpenAIEvaluator struct {
	client  *openai.Client
	model   string
	retries int
	log     *logger.Logger
}

func NewOpenAIEvaluator(cfg Config, log *logger.Logger) *OpenAIEvaluator {
	clientCfg := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIEvaluator{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		retries: cfg.EvalRetries,
		log:     log.With("component", "OpenAIEvaluator"),
	}
}

// Evaluate returns the structured analysis, or the sentinel payload plus
// the underlying error when the call fails.
func (e *OpenAIEvaluator) Evaluate(ctx context.Context, jobDescription, resumeText string) (domain.ResumeAnalysis, error) {
	prompt := fmt.Sprintf(evaluationPromptTemplate, jobDescription, resumeText)

	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.SentinelAnalysis(), ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
			e.log.Warn("retrying evaluation", "attempt", attempt, "error", lastErr)
		}

		resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: e.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: evaluationSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("chat completion: %w", err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("chat completion returned no choices")
			continue
		}

		cleaned := cleanJSONResponse(resp.Choices[0].Message.Content)
		analysis, err := domain.ParseAnalysis([]byte(cleaned))
		if err != nil {
			lastErr = fmt.Errorf("parse analysis: %w", err)
			continue
		}
		analysis.CandidateName = domain.NormalizeCandidateName(analysis.CandidateName)
		return analysis, nil
	}

	return domain.SentinelAnalysis(), lastErr
}

// cleanJSONResponse strips markdown fences and surrounding chatter so the
// first JSON object in the reply survives models that ignore the
// "raw JSON only" instruction.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}
