package translate

import (
	"context"
	"html"
	"strings"

	"github.com/mgpai22/hiyori/internal/subtitle"
)

// TranslateCues translates cue text and returns new cues with the same
// timing. Model output is sanitized again before it becomes cue markup;
// cues the model skipped keep their original text.
func TranslateCues(
	ctx context.Context,
	tr Translator,
	cues []subtitle.Cue,
) ([]subtitle.Cue, error) {
	items := make([]TranslationItem, 0, len(cues))
	for i, cue := range cues {
		text := toRaw(cue.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		items = append(items, TranslationItem{Index: i, Text: text})
	}

	results, err := tr.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	out := make([]subtitle.Cue, len(cues))
	copy(out, cues)
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(out) || strings.TrimSpace(r.Text) == "" {
			continue
		}
		out[r.Index].Text = subtitle.Sanitize(r.Text)
	}
	return out, nil
}

// cue markup to the text sent to a model: real newlines, unescaped
// entities, style tags kept
func toRaw(markup string) string {
	return html.UnescapeString(strings.ReplaceAll(markup, subtitle.LineBreak, "\n"))
}
