package ai

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const analyzeSystemPrompt = `You are a journal analysis assistant. Analyze the entry and extract:
1. Themes: Major recurring ideas or concepts
2. Symbols: Significant objects or symbols with potential meaning
3. Entities: People, places, or things mentioned

Return as JSON with keys: themes, symbols, entities (each as arrays of strings).
Be objective and avoid interpretation - just identify elements.`

const patternsSystemPrompt = `You are a journal pattern analyst. Identify recurring patterns across multiple entries.
Look for:
1. Recurring themes or situations
2. Repeated symbols or objects
3. Common emotions or moods
4. Sequential patterns (one element following another)

Return as JSON array with objects containing:
- name: Pattern name
- type: theme/symbol/emotion/sequence
- description: Brief description
- confidence: 0-1 score
- occurrences: which entry numbers it appears in`

// Compile-time check
var _ Service = (*OpenAIService)(nil)

// OpenAIService implements Service on top of the OpenAI API.
type OpenAIService struct {
	client       *openai.Client
	chatModel    string
	whisperModel string
	timeout      time.Duration
	logger       *zap.Logger
}

// NewOpenAIService creates a Service backed by OpenAI chat completions and
// Whisper transcription.
func NewOpenAIService(apiKey, chatModel, whisperModel string, timeout time.Duration, logger *zap.Logger) *OpenAIService {
	if chatModel == "" {
		chatModel = openai.GPT3Dot5Turbo
	}
	if whisperModel == "" {
		whisperModel = openai.Whisper1
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIService{
		client:       openai.NewClient(apiKey),
		chatModel:    chatModel,
		whisperModel: whisperModel,
		timeout:      timeout,
		logger:       logger.Named("OpenAIService"),
	}
}

func (s *OpenAIService) Enabled() bool { return true }

func (s *OpenAIService) TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.whisperModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		s.logger.Error("Transcription request failed",
			zap.String("filename", filename),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	s.logger.Debug("Audio transcribed",
		zap.String("filename", filename),
		zap.Int("textLen", len(resp.Text)),
		zap.Duration("duration", time.Since(start)))
	return strings.TrimSpace(resp.Text), nil
}

func (s *OpenAIService) AnalyzeThing(ctx context.Context, text string) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	content, err := s.chat(ctx, analyzeSystemPrompt, "Analyze this entry: "+text, 500)
	if err != nil {
		return nil, err
	}

	analysis, err := parseAnalysis(content)
	if err != nil {
		s.logger.Warn("Failed to parse analysis response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	return analysis, nil
}

func (s *OpenAIService) FindPatterns(ctx context.Context, things []ThingInput) ([]PatternResult, error) {
	if len(things) < 3 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var sb strings.Builder
	for i, t := range things {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Entry %d (%s): %s", i+1, t.Date.Format("2006-01-02"), t.Text)
	}

	content, err := s.chat(ctx, patternsSystemPrompt, "Find patterns in these entries:\n\n"+sb.String(), 1000)
	if err != nil {
		return nil, err
	}

	patterns, err := parsePatterns(content)
	if err != nil {
		s.logger.Warn("Failed to parse pattern response", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	return patterns, nil
}

func (s *OpenAIService) chat(ctx context.Context, systemPrompt, userInput string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userInput},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		s.logger.Error("Chat completion failed",
			zap.String("model", s.chatModel),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		s.logger.Error("Chat completion returned empty response",
			zap.String("model", s.chatModel),
			zap.Duration("duration", duration))
		return "", fmt.Errorf("%w: empty response", ErrAnalysisFailed)
	}

	s.logger.Debug("Chat completion succeeded",
		zap.String("model", s.chatModel),
		zap.Duration("duration", duration),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}
