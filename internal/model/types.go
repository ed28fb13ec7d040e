// Package model defines shared data structures.
package model

// RecordingState enumerates the capture lifecycle.
type RecordingState string

const (
	StateIdle      RecordingState = "idle"
	StateRecording RecordingState = "recording"
	StateAnalyzing RecordingState = "analyzing"
)

// AnalysisResult is the backend's verdict for one analyzed recording. Field
// names match the backend's JSON exactly. Everything beyond detected_emotion,
// confidence_score, and feedback is optional and may be absent.
type AnalysisResult struct {
	DetectedEmotion string          `json:"detected_emotion"`
	ConfidenceScore string          `json:"confidence_score"`
	PauseRatio      string          `json:"pause_ratio,omitempty"`
	Feedback        []string        `json:"feedback"`
	Grade           string          `json:"grade,omitempty"`
	Transcription   string          `json:"transcription,omitempty"`
	TechnicalStats  *TechnicalStats `json:"technical_stats,omitempty"`
	Metrics         *Metrics        `json:"metrics,omitempty"`
}

// TechnicalStats carries raw diagnostic values from the backend.
type TechnicalStats struct {
	RawPauseRatio   string `json:"raw_pause_ratio"`
	LocalModelGuess string `json:"local_model_guess"`
}

// Metrics holds authoritative delivery metrics (0-100) when the backend
// supplies them.
type Metrics struct {
	Clarity    float64 `json:"clarity"`
	Pacing     float64 `json:"pacing"`
	ToneMatch  float64 `json:"tone_match"`
	Engagement float64 `json:"engagement"`
}

// HistoryItem records one completed analysis for a logged-in user.
// Items are immutable after creation and never reordered or deleted.
type HistoryItem struct {
	ID          string         `json:"id"`
	ModuleID    string         `json:"moduleId"`
	ModuleTitle string         `json:"moduleTitle"`
	LessonTitle string         `json:"lessonTitle"`
	Date        string         `json:"date"`
	Result      AnalysisResult `json:"result"`
}

// User is the persisted identity record. History is kept newest-first.
type User struct {
	Username        string        `json:"username"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsPremium       bool          `json:"isPremium"`
	History         []HistoryItem `json:"history"`
}
