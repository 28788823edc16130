// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini implements llm.Provider on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jeranaias/cipherbot/internal/llm"
	"github.com/jeranaias/cipherbot/internal/stream"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

// fakeGenerate replays the given responses and records the request.
type fakeGenerate struct {
	responses []*genai.GenerateContentResponse
	err       error
	calls     [][]*genai.Content
	config    *genai.GenerateContentConfig
}

func (f *fakeGenerate) fn(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error] {
	f.calls = append(f.calls, contents)
	f.config = config
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, r := range f.responses {
			if !yield(r, nil) {
				return
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

func TestProvider_NoCredential(t *testing.T) {
	p := NewProvider(Config{})
	_, err := p.NewSession(context.Background())
	require.ErrorIs(t, err, llm.ErrNoCredential)
	assert.True(t, llm.IsConfig(err))
}

func TestProvider_Defaults(t *testing.T) {
	p := NewProvider(Config{APIKey: "k"})
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, DefaultModel, p.Model())
}

func TestSession_StreamsChunksAndRecordsHistory(t *testing.T) {
	fake := &fakeGenerate{responses: []*genai.GenerateContentResponse{
		textResponse("Hel"), textResponse(""), textResponse("lo"),
	}}
	s := newSession(fake.fn, "m", "be nice")

	var deltas []string
	final, err := stream.Consume(s.StreamReply(context.Background(), "hi"), func(full string) {
		deltas = append(deltas, full)
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello", final)
	assert.Equal(t, []string{"Hel", "Hello"}, deltas)
	assert.Equal(t, 2, s.HistoryLen())
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "be nice", fake.config.SystemInstruction.Parts[0].Text)

	// The next turn carries the previous exchange.
	_, err = stream.Consume(s.StreamReply(context.Background(), "again"), nil, nil)
	require.NoError(t, err)
	require.Len(t, fake.calls, 2)
	assert.Len(t, fake.calls[1], 3)
	assert.EqualValues(t, genai.RoleModel, fake.calls[1][1].Role)
}

func TestSession_FailedTurnIsNotRecorded(t *testing.T) {
	fake := &fakeGenerate{
		responses: []*genai.GenerateContentResponse{textResponse("par")},
		err:       errors.New("stream reset"),
	}
	s := newSession(fake.fn, "m", "")

	final, err := stream.Consume(s.StreamReply(context.Background(), "hi"), nil, nil)
	require.Error(t, err)
	assert.Equal(t, "par", final)
	assert.Equal(t, llm.KindProvider, llm.KindOf(err))
	assert.Equal(t, 0, s.HistoryLen())
}

func TestSession_EmptyReply(t *testing.T) {
	fake := &fakeGenerate{}
	s := newSession(fake.fn, "m", "")
	_, err := stream.Consume(s.StreamReply(context.Background(), "hi"), nil, nil)
	assert.ErrorIs(t, err, llm.ErrEmptyReply)
}

func TestClassify_APIError(t *testing.T) {
	err := classify(&genai.APIError{Code: 429, Message: "quota exceeded"})
	assert.Equal(t, llm.KindProvider, llm.KindOf(err))
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestResponseText_SkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking", Thought: true},
				{Text: "answer"},
			}},
		}},
	}
	assert.Equal(t, "answer", responseText(resp))
	assert.Equal(t, "", responseText(nil))
}
