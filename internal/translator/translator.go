// Package translator translates label names with Amazon Translate.
package translator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"

	"github.com/pricofy/image-labeler/internal/chunker"
	"github.com/pricofy/image-labeler/internal/config"
	"github.com/pricofy/image-labeler/internal/report"
)

// API is the subset of the Amazon Translate client used by the translator.
type API interface {
	TranslateText(ctx context.Context, params *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

// Translator translates label names from the source to the target language.
type Translator struct {
	client     API
	sourceLang string
	targetLang string
	sourceSep  string
	targetSep  string
	mode       string
	maxBytes   int
}

// New creates a Translator backed by client.
func New(client API, cfg config.TranslationConfig) *Translator {
	return &Translator{
		client:     client,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		sourceSep:  cfg.SourceDelimiter,
		targetSep:  cfg.TargetDelimiter,
		mode:       cfg.Mode,
		maxBytes:   chunker.MaxTranslateBytes,
	}
}

// Translate returns one translated string per name. In joined mode the
// names travel as a single sentence, so the result can contain a different
// number of segments when the service merges or rewords the conjunction.
func (t *Translator) Translate(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}

	if t.mode == config.TranslatePerLabel {
		return t.translateEach(ctx, names)
	}
	return t.translateJoined(ctx, names)
}

// translateJoined sends the names joined by the source delimiter, chunked to
// stay within the request size limit, and splits each answer on the target
// delimiter.
func (t *Translator) translateJoined(ctx context.Context, names []string) ([]string, error) {
	chunks := [][]string{names}
	if chunker.JoinedSize(names, t.sourceSep) > t.maxBytes {
		chunks = chunker.ChunkByBytes(names, t.sourceSep, t.maxBytes)
	}

	translated := make([]string, 0, len(names))
	for i, chunk := range chunks {
		text, err := t.translateText(ctx, report.Join(chunk, t.sourceSep))
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i+1, err)
		}
		translated = append(translated, report.Split(text, t.targetSep)...)
	}
	return translated, nil
}

// translateEach translates every name on its own, keeping a 1:1 mapping.
func (t *Translator) translateEach(ctx context.Context, names []string) ([]string, error) {
	translated := make([]string, 0, len(names))
	for _, name := range names {
		text, err := t.translateText(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", name, err)
		}
		translated = append(translated, text)
	}
	return translated, nil
}

func (t *Translator) translateText(ctx context.Context, text string) (string, error) {
	out, err := t.client.TranslateText(ctx, &translate.TranslateTextInput{
		SourceLanguageCode: aws.String(t.sourceLang),
		TargetLanguageCode: aws.String(t.targetLang),
		Text:               aws.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate text: %w", err)
	}
	if out == nil || out.TranslatedText == nil {
		return "", fmt.Errorf("empty TranslateText response")
	}
	return *out.TranslatedText, nil
}
