package session

import (
	"maps"
	"slices"
	"sync"
	"time"

	"interview/types"
)

// Session is the state of one interview. All methods are safe for concurrent use
// and getters hand out copies.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.RWMutex
	jobInfo   *types.JobInfo
	questions *types.QuestionSet
	audio     map[string]types.AudioAnalysis
	video     *types.VideoAnalysis
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		audio:     make(map[string]types.AudioAnalysis),
	}
}

// SetJobInfo replaces the job info wholesale.
func (s *Session) SetJobInfo(info types.JobInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobInfo = &info
}

func (s *Session) JobInfo() (types.JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.jobInfo == nil {
		return types.JobInfo{}, false
	}
	return *s.jobInfo, true
}

func (s *Session) SetQuestions(qs types.QuestionSet) {
	qs.Questions = slices.Clone(qs.Questions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = &qs
}

func (s *Session) Questions() (types.QuestionSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.questions == nil {
		return types.QuestionSet{}, false
	}
	return cloneQuestions(*s.questions), true
}

// AppendAudioAnalysis records one answer under timestamp. A repeated
// timestamp overwrites the earlier entry.
func (s *Session) AppendAudioAnalysis(timestamp, transcript string, evaluation types.TechnicalFeedback) {
	entry := types.AudioAnalysis{
		Transcription: transcript,
		Analysis:      cloneFeedback(evaluation),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio[timestamp] = entry
}

func (s *Session) AudioAnalyses() map[string]types.AudioAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAudio(s.audio)
}

// SetVideoAnalysis overwrites the previous analysis.
func (s *Session) SetVideoAnalysis(v types.VideoAnalysis) {
	v.Emotions = slices.Clone(v.Emotions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = &v
}

func (s *Session) VideoAnalysis() (types.VideoAnalysis, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.video == nil {
		return types.VideoAnalysis{}, false
	}
	v := *s.video
	v.Emotions = slices.Clone(v.Emotions)
	return v, true
}

// Snapshot copies every field under one read lock.
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := types.SessionSnapshot{
		AudioAnalyses: cloneAudio(s.audio),
	}
	if s.jobInfo != nil {
		info := *s.jobInfo
		snap.JobInfo = &info
	}
	if s.questions != nil {
		qs := cloneQuestions(*s.questions)
		snap.Questions = &qs
	}
	if s.video != nil {
		v := *s.video
		v.Emotions = slices.Clone(v.Emotions)
		snap.VideoAnalysis = &v
	}
	return snap
}

func cloneQuestions(qs types.QuestionSet) types.QuestionSet {
	qs.Questions = slices.Clone(qs.Questions)
	return qs
}

func cloneFeedback(f types.TechnicalFeedback) types.TechnicalFeedback {
	f.Evaluation = slices.Clone(f.Evaluation)
	f.ActionableSuggestions = slices.Clone(f.ActionableSuggestions)
	return f
}

func cloneAudio(in map[string]types.AudioAnalysis) map[string]types.AudioAnalysis {
	out := maps.Clone(in)
	if out == nil {
		out = make(map[string]types.AudioAnalysis)
	}
	for k, v := range out {
		v.Analysis = cloneFeedback(v.Analysis)
		out[k] = v
	}
	return out
}
