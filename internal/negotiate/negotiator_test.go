package negotiate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	candA = Candidate{OperationID: "createQuestion", PayloadFieldKey: "body"}
	candB = Candidate{OperationID: "createQuestion", PayloadFieldKey: "content"}
	candC = Candidate{OperationID: "createPost", PayloadFieldKey: "text"}
)

// scripted responde por candidato y registra el orden de llamadas.
type scripted struct {
	responses map[Candidate]string
	errs      map[Candidate]error
	calls     []Attempt
	inFlight  int
	maxFlight int
}

func (s *scripted) Execute(_ context.Context, a Attempt) (json.RawMessage, error) {
	s.inFlight++
	if s.inFlight > s.maxFlight {
		s.maxFlight = s.inFlight
	}
	defer func() { s.inFlight-- }()
	s.calls = append(s.calls, a)
	if err := s.errs[a.Candidate]; err != nil {
		return nil, err
	}
	return json.RawMessage(s.responses[a.Candidate]), nil
}

func build(c Candidate) map[string]any {
	return map[string]any{"title": "Hot tub", c.PayloadFieldKey: "How often?"}
}

func fixedKey() string { return "key-1" }

func TestNegotiate_ThirdCandidateWins(t *testing.T) {
	exec := &scripted{
		errs: map[Candidate]error{
			candA: errors.New(`Cannot query field "createQuestion"`),
		},
		responses: map[Candidate]string{
			candB: `null`,
			candC: `{"id":"q1"}`,
		},
	}
	n := New(exec, []Candidate{candA, candB, candC}, WithKeyFunc(fixedKey))

	res, err := n.Negotiate(context.Background(), build)
	require.NoError(t, err)
	assert.Equal(t, candC, res.Winner)
	assert.JSONEq(t, `{"id":"q1"}`, string(res.Response))
	require.Len(t, res.Trail, 3)
	assert.Equal(t, 2, res.Trail.Failures())
	assert.Equal(t, candA, res.Trail[0].Candidate)
	assert.Equal(t, candB, res.Trail[1].Candidate)
	assert.Equal(t, "empty response", res.Trail[1].Message)
	assert.True(t, res.Trail[2].Success)
	assert.Len(t, exec.calls, 3)
	assert.Equal(t, 1, exec.maxFlight)
}

func TestNegotiate_StopsAfterFirstSuccess(t *testing.T) {
	exec := &scripted{responses: map[Candidate]string{
		candA: `{"id":"q1"}`,
		candB: `{"id":"q2"}`,
	}}
	n := New(exec, []Candidate{candA, candB, candC})

	res, err := n.Negotiate(context.Background(), build)
	require.NoError(t, err)
	assert.Equal(t, candA, res.Winner)
	assert.Len(t, exec.calls, 1)
	assert.NotEmpty(t, res.IdempotencyKey)
}

func TestNegotiate_ExhaustedKeepsOrderedTrail(t *testing.T) {
	exec := &scripted{
		errs:      map[Candidate]error{candA: errors.New("unknown field body")},
		responses: map[Candidate]string{candB: `{}`},
	}
	n := New(exec, []Candidate{candA, candB})

	res, err := n.Negotiate(context.Background(), build)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrExhausted)

	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	require.Len(t, ex.Trail, 2)
	assert.Equal(t, candA, ex.Trail[0].Candidate)
	assert.Equal(t, "unknown field body", ex.Trail[0].Message)
	assert.Equal(t, candB, ex.Trail[1].Candidate)
	assert.Contains(t, err.Error(), "createQuestion(body): unknown field body")
}

func TestNegotiate_OverrideFirstAndDeduplicated(t *testing.T) {
	n := New(nil, []Candidate{candA, candB, candC}, WithOverride(candC))
	assert.Equal(t, []Candidate{candC, candA, candB}, n.Candidates())

	exec := &scripted{responses: map[Candidate]string{candC: `{"ok":true}`}}
	n = New(exec, []Candidate{candA, candB, candC}, WithOverride(candC))
	res, err := n.Negotiate(context.Background(), build)
	require.NoError(t, err)
	assert.Equal(t, candC, res.Winner)
	assert.Len(t, exec.calls, 1)
}

func TestNegotiate_PayloadAndKeyPerAttempt(t *testing.T) {
	exec := &scripted{responses: map[Candidate]string{candB: `{"id":"x"}`}}
	n := New(exec, []Candidate{candA, candB}, WithKeyFunc(fixedKey))

	_, err := n.Negotiate(context.Background(), build)
	require.NoError(t, err)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, "How often?", exec.calls[0].Payload["body"])
	assert.Equal(t, "How often?", exec.calls[1].Payload["content"])
	assert.Equal(t, 1, exec.calls[0].Index)
	assert.Equal(t, 2, exec.calls[1].Index)
	for _, c := range exec.calls {
		assert.Equal(t, "key-1", c.IdempotencyKey)
	}
}

func TestNegotiate_InvalidJSONIsFailure(t *testing.T) {
	exec := &scripted{responses: map[Candidate]string{candA: `<html>`}}
	_, err := New(exec, []Candidate{candA}).Negotiate(context.Background(), build)
	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, "response is not valid JSON", ex.Trail[0].Message)
}

func TestNegotiate_ContextCancelledStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := ExecutorFunc(func(context.Context, Attempt) (json.RawMessage, error) {
		cancel()
		return nil, errors.New("boom")
	})

	_, err := New(exec, []Candidate{candA, candB}).Negotiate(ctx, build)
	require.ErrorIs(t, err, context.Canceled)
	var ab *AbortedError
	require.ErrorAs(t, err, &ab)
	assert.Len(t, ab.Trail, 1)
}

func TestNegotiate_NoCandidates(t *testing.T) {
	_, err := New(&scripted{}, nil).Negotiate(context.Background(), build)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestParseCandidates(t *testing.T) {
	got, err := ParseCandidates(" createQuestion:body, createPost : text ,")
	require.NoError(t, err)
	assert.Equal(t, []Candidate{candA, candC}, got)

	_, err = ParseCandidate("createQuestion")
	assert.Error(t, err)
	_, err = ParseCandidate(":body")
	assert.Error(t, err)
}

func TestTrailString(t *testing.T) {
	tr := Trail{
		{Candidate: candA, Message: "boom"},
		{Candidate: candC, Success: true},
	}
	assert.Equal(t, "1. createQuestion(body): boom\n2. createPost(text): ok", tr.String())
}
