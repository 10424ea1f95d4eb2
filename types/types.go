package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCandidateName  = "Anonymous"
	DefaultCompanyName    = "Not specified"
	DefaultJobDescription = "No description provided"
)

// JobInfo is the interview context captured at session start.
type JobInfo struct {
	CandidateName  string `json:"candidate_name"`
	JobRole        string `json:"job_role"`
	CompanyName    string `json:"company_name"`
	JobDescription string `json:"job_description"`
	OtherDetails   string `json:"other_details,omitempty"`
	ResumeText     string `json:"resume_text_content,omitempty"`
}

type QuestionSet struct {
	Questions []string `json:"questions"`
	Summary   string   `json:"summary"`
}

type TechnicalEvaluation struct {
	Category       string  `json:"category"`
	Score          float64 `json:"score"`
	Feedback       string  `json:"feedback"`
	ImprovementTip string  `json:"improvement_tip"`
}

// TechnicalFeedback is the structured evaluation of one spoken answer.
// Error is set instead of the other fields when evaluation failed.
type TechnicalFeedback struct {
	Evaluation            []TechnicalEvaluation `json:"evaluation,omitempty"`
	OverallSummary        string                `json:"overall_summary,omitempty"`
	ActionableSuggestions []string              `json:"actionable_suggestions,omitempty"`
	Error                 string                `json:"error,omitempty"`
}

type AudioAnalysis struct {
	Transcription string            `json:"transcription"`
	Analysis      TechnicalFeedback `json:"analysis"`
}

type FrameEmotion struct {
	Emotion    string  `json:"emotion,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

type VideoAnalysis struct {
	TotalFrames    int            `json:"total_frames"`
	FramesAnalyzed int            `json:"frames_analyzed"`
	Emotions       []FrameEmotion `json:"emotion_analysis"`
}

// SessionSnapshot is a point-in-time copy of one interview session.
type SessionSnapshot struct {
	JobInfo       *JobInfo                 `json:"job_info"`
	Questions     *QuestionSet             `json:"questions_generated"`
	AudioAnalyses map[string]AudioAnalysis `json:"audio_transcripts"`
	VideoAnalysis *VideoAnalysis           `json:"video_analysis"`
}

type RetrievalResult struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Source   string    `json:"source"`
	Page     int       `json:"page"`
	Distance float64   `json:"distance"`
}

type Chunk struct {
	ID        uuid.UUID
	Text      string
	Source    string
	Page      int
	Position  int
	Embedding []float32
}

type Page struct {
	Number int
	Text   string
}

type Document struct {
	ID         uuid.UUID
	Title      string
	Source     string
	SourcePath string
	Pages      []Page
	Chunks     []Chunk
	CreatedAt  time.Time
}

// Report is the final interview analysis.
type Report struct {
	Summary               string   `json:"summary"`
	TechnicalFeedback     string   `json:"technical_feedback"`
	BehavioralFeedback    string   `json:"behavioral_feedback"`
	CommunicationFeedback string   `json:"communication_feedback"`
	Suggestions           []string `json:"suggestions"`
	Score                 Score    `json:"score"`
}

// Score accepts either a JSON string or a JSON number.
type Score string

func (s *Score) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Score(str)
		return nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return err
	}
	*s = Score(raw)
	return nil
}

type Config struct {
	MonitoringTime time.Duration
	Watch          bool
	SourceDir      string
	ArchiveDir     string
	BadDir         string
	ChunkSize      int
	ChunkOverlap   int
	CropTop        float64
	CropBottom     float64
	RateLimit      float64
}
