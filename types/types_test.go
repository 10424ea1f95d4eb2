package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Score
	}{
		{name: "sentence", raw: `{"score":"overall score is 7/10"}`, want: "overall score is 7/10"},
		{name: "integer", raw: `{"score":8}`, want: "8"},
		{name: "float", raw: `{"score":7.5}`, want: "7.5"},
		{name: "null", raw: `{"score":null}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Report
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.want, r.Score)
		})
	}
}

func TestScoreUnmarshalRejectsObject(t *testing.T) {
	var r Report
	assert.Error(t, json.Unmarshal([]byte(`{"score":{"value":1}}`), &r))
}

func TestStartInterviewParams(t *testing.T) {
	t.Run("job role required", func(t *testing.T) {
		p := &StartInterviewParams{JobRole: "   "}
		errs := Validate(p)
		require.NotNil(t, errs)
		assert.Contains(t, errs, "JobRole")
	})

	t.Run("defaults applied", func(t *testing.T) {
		p := &StartInterviewParams{JobRole: "Backend Engineer"}
		require.Nil(t, Validate(p))

		info := p.JobInfo("")
		assert.Equal(t, DefaultCandidateName, info.CandidateName)
		assert.Equal(t, DefaultCompanyName, info.CompanyName)
		assert.Equal(t, DefaultJobDescription, info.JobDescription)
		assert.Equal(t, "Backend Engineer", info.JobRole)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		p := &StartInterviewParams{CandidateName: "Sam", JobRole: "SRE", CompanyName: "Acme", JobDescription: "pager duty"}
		info := p.JobInfo("resume")
		assert.Equal(t, "Sam", info.CandidateName)
		assert.Equal(t, "Acme", info.CompanyName)
		assert.Equal(t, "pager duty", info.JobDescription)
		assert.Equal(t, "resume", info.ResumeText)
	})
}
