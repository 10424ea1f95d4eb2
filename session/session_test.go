package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview/types"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(10, time.Hour)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	assert.True(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreIsolatesSessions(t *testing.T) {
	store := NewStore(10, time.Hour)
	a := store.Create()
	b := store.Create()
	require.NotEqual(t, a.ID, b.ID)

	a.SetJobInfo(types.JobInfo{JobRole: "Backend"})
	b.SetJobInfo(types.JobInfo{JobRole: "Frontend"})

	infoA, _ := a.JobInfo()
	infoB, _ := b.JobInfo()
	assert.Equal(t, "Backend", infoA.JobRole)
	assert.Equal(t, "Frontend", infoB.JobRole)
}

func TestStoreCapacityEvicts(t *testing.T) {
	store := NewStore(2, time.Hour)
	first := store.Create()
	store.Create()
	store.Create()

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreTTLExpires(t *testing.T) {
	store := NewStore(10, 50*time.Millisecond)
	sess := store.Create()

	assert.Eventually(t, func() bool {
		_, err := store.Get(sess.ID)
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSetJobInfoOverwrites(t *testing.T) {
	sess := newSession("s")
	sess.SetJobInfo(types.JobInfo{JobRole: "first", CompanyName: "Acme", OtherDetails: "only in first"})
	sess.SetJobInfo(types.JobInfo{JobRole: "second"})

	info, ok := sess.JobInfo()
	require.True(t, ok)
	assert.Equal(t, types.JobInfo{JobRole: "second"}, info)
}

func TestAppendAudioAnalysis(t *testing.T) {
	sess := newSession("s")
	const n = 5

	inputs := make(map[string]types.AudioAnalysis, n)
	for i := 0; i < n; i++ {
		ts := fmt.Sprintf("2026-01-01T00:00:0%dZ", i)
		fb := types.TechnicalFeedback{
			Evaluation:     []types.TechnicalEvaluation{{Category: "clarity", Score: float64(i)}},
			OverallSummary: fmt.Sprintf("answer %d", i),
		}
		sess.AppendAudioAnalysis(ts, fmt.Sprintf("transcript %d", i), fb)
		inputs[ts] = types.AudioAnalysis{Transcription: fmt.Sprintf("transcript %d", i), Analysis: fb}
	}

	got := sess.AudioAnalyses()
	require.Len(t, got, n)
	for ts, want := range inputs {
		assert.Equal(t, want, got[ts])
	}
}

func TestAppendAudioAnalysisSameTimestampOverwrites(t *testing.T) {
	sess := newSession("s")
	sess.AppendAudioAnalysis("t", "old", types.TechnicalFeedback{})
	sess.AppendAudioAnalysis("t", "new", types.TechnicalFeedback{})

	got := sess.AudioAnalyses()
	require.Len(t, got, 1)
	assert.Equal(t, "new", got["t"].Transcription)
}

func TestGettersReturnCopies(t *testing.T) {
	sess := newSession("s")
	sess.SetQuestions(types.QuestionSet{Questions: []string{"q1"}, Summary: "s"})
	sess.SetVideoAnalysis(types.VideoAnalysis{Emotions: []types.FrameEmotion{{Emotion: "Happy"}}})

	qs, _ := sess.Questions()
	qs.Questions[0] = "mutated"
	v, _ := sess.VideoAnalysis()
	v.Emotions[0].Emotion = "mutated"

	qs2, _ := sess.Questions()
	v2, _ := sess.VideoAnalysis()
	assert.Equal(t, "q1", qs2.Questions[0])
	assert.Equal(t, "Happy", v2.Emotions[0].Emotion)
}

func TestSnapshot(t *testing.T) {
	sess := newSession("s")

	empty := sess.Snapshot()
	assert.Nil(t, empty.JobInfo)
	assert.Nil(t, empty.Questions)
	assert.Nil(t, empty.VideoAnalysis)
	assert.NotNil(t, empty.AudioAnalyses)

	sess.SetJobInfo(types.JobInfo{JobRole: "SRE"})
	sess.SetVideoAnalysis(types.VideoAnalysis{TotalFrames: 10, FramesAnalyzed: 5})
	sess.SetVideoAnalysis(types.VideoAnalysis{TotalFrames: 20, FramesAnalyzed: 5})

	snap := sess.Snapshot()
	require.NotNil(t, snap.JobInfo)
	assert.Equal(t, "SRE", snap.JobInfo.JobRole)
	require.NotNil(t, snap.VideoAnalysis)
	assert.Equal(t, 20, snap.VideoAnalysis.TotalFrames)
}

func TestConcurrentAccess(t *testing.T) {
	sess := newSession("s")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			sess.AppendAudioAnalysis(fmt.Sprintf("ts-%d", i), "t", types.TechnicalFeedback{})
		}(i)
		go func() {
			defer wg.Done()
			_ = sess.Snapshot()
		}()
	}
	wg.Wait()
	assert.Len(t, sess.AudioAnalyses(), 50)
}
