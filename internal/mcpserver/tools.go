package mcpserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vietspeak-ai/vietspeak/internal/analyze"
	"github.com/vietspeak-ai/vietspeak/internal/attempts"
	"github.com/vietspeak-ai/vietspeak/internal/feedback"
	"github.com/vietspeak-ai/vietspeak/internal/observe"
	"github.com/vietspeak-ai/vietspeak/internal/score"
	"github.com/vietspeak-ai/vietspeak/pkg/audio"
)

// PracticeSuggestions are general practice tips returned with every phoneme
// feedback response.
var PracticeSuggestions = []string{
	"Nghe và bắt chước người bản xứ",
	"Thu âm giọng mình và so sánh",
	"Tập trung vào một âm khó tại một thời điểm",
}

// AnalyzeInput is the request payload of the analyze_pronunciation tool.
type AnalyzeInput struct {
	AudioBase64      string `json:"audio_base64" jsonschema:"Base64-encoded WAV audio data"`
	ReferenceText    string `json:"reference_text" jsonschema:"The expected English text that should have been spoken"`
	DetailedFeedback *bool  `json:"detailed_feedback,omitempty" jsonschema:"Whether to include phoneme-level feedback (default true)"`

	// LearnerID, when set, records the attempt in the history store so
	// progress can be retrieved later via get_progress.
	LearnerID string `json:"learner_id,omitempty" jsonschema:"Optional learner identifier for attempt history"`
}

// AnalyzeOutput is the response payload of the analyze_pronunciation tool.
type AnalyzeOutput struct {
	Transcription    string                   `json:"transcription"`
	Score            score.PronunciationScore `json:"score"`
	Feedback         feedback.Bundle          `json:"feedback"`
	AudioDurationSec float64                  `json:"audio_duration_sec"`
}

func (s *Server) analyzePronunciation(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	clip, err := decodeAudio(in.AudioBase64)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	res, err := s.analyzer.Analyze(ctx, clip, in.ReferenceText)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	out := AnalyzeOutput{
		Transcription:    res.Transcription,
		Score:            res.Score,
		Feedback:         res.Feedback,
		AudioDurationSec: res.AudioDurationSec,
	}
	if in.DetailedFeedback != nil && !*in.DetailedFeedback {
		out.Feedback.Phonemes = nil
	}
	if in.LearnerID != "" {
		if _, err := s.store.Save(ctx, attempts.Attempt{
			LearnerID:        in.LearnerID,
			ReferenceText:    in.ReferenceText,
			Transcription:    res.Transcription,
			Score:            res.Score,
			AudioDurationSec: res.AudioDurationSec,
		}); err != nil {
			observe.Logger(ctx).Warn("failed to record attempt", "learner_id", in.LearnerID, "err", err)
		}
	}
	return nil, out, nil
}

// TranscribeInput is the request payload of the transcribe_audio tool.
type TranscribeInput struct {
	AudioBase64 string `json:"audio_base64" jsonschema:"Base64-encoded WAV audio data"`
	Language    string `json:"language,omitempty" jsonschema:"Language code (default en)"`
}

// TranscribeOutput is the response payload of the transcribe_audio tool.
type TranscribeOutput struct {
	Transcription string  `json:"transcription"`
	Confidence    float64 `json:"confidence"`
	Language      string  `json:"language"`
}

func (s *Server) transcribeAudio(ctx context.Context, _ *mcp.CallToolRequest, in TranscribeInput) (*mcp.CallToolResult, TranscribeOutput, error) {
	clip, err := decodeAudio(in.AudioBase64)
	if err != nil {
		return nil, TranscribeOutput{}, err
	}
	tr, err := s.analyzer.Transcribe(ctx, clip)
	if err != nil {
		return nil, TranscribeOutput{}, err
	}
	lang := tr.Language
	if lang == "" {
		lang = in.Language
	}
	if lang == "" {
		lang = "en"
	}
	return nil, TranscribeOutput{
		Transcription: tr.Text,
		Confidence:    tr.Confidence,
		Language:      lang,
	}, nil
}

// PhonemeFeedbackInput is the request payload of the get_phoneme_feedback tool.
type PhonemeFeedbackInput struct {
	Text             string   `json:"text" jsonschema:"English text to analyze"`
	DetectedPhonemes []string `json:"detected_phonemes,omitempty" jsonschema:"Optional list of phonemes detected from speech"`
}

// PhonemeFeedbackOutput is the response payload of the get_phoneme_feedback
// tool.
type PhonemeFeedbackOutput struct {
	Text                string                      `json:"text"`
	PhonemeCount        int                         `json:"phoneme_count"`
	VietnameseTips      []feedback.InterferenceRule `json:"vietnamese_specific_tips"`
	PracticeSuggestions []string                    `json:"practice_suggestions"`
}

func (s *Server) phonemeFeedback(_ context.Context, _ *mcp.CallToolRequest, in PhonemeFeedbackInput) (*mcp.CallToolResult, PhonemeFeedbackOutput, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, PhonemeFeedbackOutput{}, fmt.Errorf("mcpserver: text must not be empty")
	}
	out := PhonemeFeedbackOutput{
		Text:                in.Text,
		PhonemeCount:        len(strings.Fields(in.Text)),
		PracticeSuggestions: PracticeSuggestions,
	}
	if n := len(in.DetectedPhonemes); n > 0 && n > out.PhonemeCount {
		out.PhonemeCount = n
	}
	lower := strings.ToLower(in.Text)
	for _, r := range s.analyzer.Advisor().Rules() {
		if r.Trigger == feedback.TriggerAlways || strings.Contains(lower, r.Trigger) {
			out.VietnameseTips = append(out.VietnameseTips, r)
		}
	}
	return nil, out, nil
}

// CompareInput is the request payload of the compare_pronunciation tool.
type CompareInput struct {
	AudioBeforeBase64 string `json:"audio_before_base64,omitempty" jsonschema:"Base64-encoded audio of first attempt; omit to compare against the learner's last recorded attempt"`
	AudioAfterBase64  string `json:"audio_after_base64" jsonschema:"Base64-encoded audio of second attempt"`
	ReferenceText     string `json:"reference_text" jsonschema:"The expected English text"`

	// LearnerID selects the stored baseline when no before-audio is given:
	// the learner's most recent recorded attempt at ReferenceText.
	LearnerID string `json:"learner_id,omitempty" jsonschema:"Learner identifier whose last attempt at the reference text serves as the baseline"`
}

func (s *Server) comparePronunciation(ctx context.Context, _ *mcp.CallToolRequest, in CompareInput) (*mcp.CallToolResult, analyze.Comparison, error) {
	after, err := decodeAudio(in.AudioAfterBase64)
	if err != nil {
		return nil, analyze.Comparison{}, fmt.Errorf("mcpserver: after attempt: %w", err)
	}

	if in.AudioBeforeBase64 == "" {
		if in.LearnerID == "" {
			return nil, analyze.Comparison{}, fmt.Errorf("mcpserver: either audio_before_base64 or learner_id is required")
		}
		prev, err := s.store.LastForReference(ctx, in.LearnerID, in.ReferenceText)
		if errors.Is(err, attempts.ErrNotFound) {
			return nil, analyze.Comparison{}, fmt.Errorf("mcpserver: learner %q has no recorded attempt at this text", in.LearnerID)
		}
		if err != nil {
			return nil, analyze.Comparison{}, err
		}
		cmp, err := s.analyzer.CompareWithBaseline(ctx, analyze.Baseline{
			Transcription: prev.Transcription,
			Score:         prev.Score,
		}, after, in.ReferenceText)
		if err != nil {
			return nil, analyze.Comparison{}, err
		}
		return nil, cmp, nil
	}

	before, err := decodeAudio(in.AudioBeforeBase64)
	if err != nil {
		return nil, analyze.Comparison{}, fmt.Errorf("mcpserver: before attempt: %w", err)
	}
	cmp, err := s.analyzer.Compare(ctx, before, after, in.ReferenceText)
	if err != nil {
		return nil, analyze.Comparison{}, err
	}
	return nil, cmp, nil
}

// ProgressInput is the request payload of the get_progress tool.
type ProgressInput struct {
	LearnerID string `json:"learner_id" jsonschema:"Learner identifier used when analyzing attempts"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of attempts to return (default 20)"`
}

// ProgressOutput is the response payload of the get_progress tool.
type ProgressOutput struct {
	LearnerID string             `json:"learner_id"`
	Attempts  []attempts.Attempt `json:"attempts"`
}

func (s *Server) getProgress(ctx context.Context, _ *mcp.CallToolRequest, in ProgressInput) (*mcp.CallToolResult, ProgressOutput, error) {
	if in.LearnerID == "" {
		return nil, ProgressOutput{}, fmt.Errorf("mcpserver: learner_id must not be empty")
	}
	recent, err := s.store.Recent(ctx, in.LearnerID, in.Limit)
	if err != nil {
		return nil, ProgressOutput{}, err
	}
	return nil, ProgressOutput{LearnerID: in.LearnerID, Attempts: recent}, nil
}

func decodeAudio(b64 string) (audio.Clip, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("mcpserver: decode audio payload: %w", err)
	}
	return audio.DecodeWAVForRecognition(raw)
}
