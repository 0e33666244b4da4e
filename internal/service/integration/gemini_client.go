package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/lekcja/lesson-service/internal/models"
	"github.com/lekcja/lesson-service/internal/repository"
)

var (
	ErrMissingCredential = errors.New("API key is missing, set it in the dashboard settings")
	ErrNoContent         = errors.New("no response text generated")
)

const systemInstruction = `
You are an expert Polish language tutor who teaches Russian-speaking students.
Your goal is to assist the tutor by analyzing an audio recording of a lesson.

Analyze the provided audio (which contains a conversation in Polish and Russian).
Extract and generate the following in a structured JSON format:

1. **Summary**: A concise summary of what was discussed and learned in the lesson (in Russian).
2. **Vocabulary**: A list of key Polish words or phrases mentioned or struggled with, their Russian translations, and a short Polish example sentence for context.
3. **Mistakes**: Identify 3-5 key grammatical or pronunciation mistakes the student made. Show the incorrect phrase, the corrected version, and a brief explanation (in Russian).
4. **Exercises**: Generate 2 short homework exercises based strictly on the topics/words from this lesson.
5. **NextLessonIdeas**: Suggest 2-3 topics or activities for the next lesson based on the student's current gaps.

The output must be pure JSON.
`

// lessonSchema повторяет форму models.LessonData; модель обязана
// вернуть JSON ровно этой структуры.
var lessonSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"summary": {
			Type:        genai.TypeString,
			Description: "Summary of the lesson in Russian.",
		},
		"vocabulary": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"polish":  {Type: genai.TypeString},
					"russian": {Type: genai.TypeString},
					"example": {Type: genai.TypeString},
				},
			},
		},
		"mistakes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"incorrect":   {Type: genai.TypeString},
					"correct":     {Type: genai.TypeString},
					"explanation": {Type: genai.TypeString},
				},
			},
		},
		"exercises": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"type": {
						Type:        genai.TypeString,
						Description: "Type of exercise, e.g., 'Fill in blanks' or 'Translate'",
					},
					"instruction": {
						Type:        genai.TypeString,
						Description: "Instruction in Russian",
					},
					"questions": {
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					},
				},
			},
		},
		"nextLessonIdeas": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
	},
	Required: []string{"summary", "vocabulary", "mistakes", "exercises", "nextLessonIdeas"},
}

type AnalyzerClient interface {
	AnalyzeLesson(ctx context.Context, audio []byte, mimeType string) (*models.LessonData, error)
}

type geminiClient struct {
	credentials repository.CredentialRepository
	model       string
	timeout     time.Duration
	logger      zerolog.Logger
}

func NewGeminiClient(credentials repository.CredentialRepository, model string, timeout time.Duration, logger zerolog.Logger) AnalyzerClient {
	return &geminiClient{
		credentials: credentials,
		model:       model,
		timeout:     timeout,
		logger:      logger,
	}
}

// AnalyzeLesson выполняет ровно один вызов генеративной модели: без
// ретраев, без стриминга, без частичных результатов. Все ошибки
// отдаются вызывающему как есть.
func (c *geminiClient) AnalyzeLesson(ctx context.Context, audio []byte, mimeType string) (*models.LessonData, error) {
	apiKey, err := c.credentials.Get(ctx)
	if err == repository.ErrNotFound {
		return nil, ErrMissingCredential
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   lessonSchema,
	}

	started := time.Now()
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: audio},
		genai.Text("Please analyze this lesson recording and generate the lesson report."),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, ErrNoContent
	}

	var data models.LessonData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("failed to parse analysis result: %w", err)
	}

	c.logger.Info().
		Str("model", c.model).
		Dur("took", time.Since(started)).
		Int("audio_bytes", len(audio)).
		Msg("Lesson audio analyzed")

	return &data, nil
}
