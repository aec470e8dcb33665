package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricofy/image-labeler/internal/domain"
)

type fakeLabeler struct {
	req  domain.Request
	resp domain.Response
}

func (f *fakeLabeler) Handle(_ context.Context, req domain.Request) domain.Response {
	f.req = req
	return f.resp
}

// fakeInvoker records invocations. failEvery makes every n-th call fail
// and hold keeps each call in flight for a while.
type fakeInvoker struct {
	mu          sync.Mutex
	inputs      []*lambdasdk.InvokeInput
	err         error
	failEvery   int
	hold        time.Duration
	inFlight    int
	maxInFlight int
}

func (f *fakeInvoker) Invoke(_ context.Context, params *lambdasdk.InvokeInput, _ ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, params)
	n := len(f.inputs)
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	f.mu.Unlock()

	time.Sleep(f.hold)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.failEvery > 0 && n%f.failEvery == 0 {
		return nil, errors.New("TooManyRequestsException")
	}
	return &lambdasdk.InvokeOutput{}, f.err
}

func newTestFunction(l *fakeLabeler, inv *fakeInvoker) *function {
	w := newWarmer(inv, zap.NewNop())
	w.functionName = "image-labeler"
	w.delay = 0
	return &function{labeler: l, warmer: w, logger: zap.NewNop()}
}

func TestIsWarmupEvent(t *testing.T) {
	tests := []struct {
		name        string
		event       string
		isWarmup    bool
		concurrency int
	}{
		{"warmup without concurrency", `{"source":"warmup"}`, true, 0},
		{"warmup with concurrency", `{"source":"warmup","concurrency":3}`, true, 3},
		{"warmup capped", `{"source":"warmup","concurrency":500}`, true, MaxWarmupConcurrency},
		{"negative concurrency", `{"source":"warmup","concurrency":-2}`, true, 0},
		{"other source", `{"source":"aws.events"}`, false, 0},
		{"api gateway request", `{"httpMethod":"GET","queryStringParameters":{"imageUrl":"x"}}`, false, 0},
		{"not json", `nope`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warmup, ok := IsWarmupEvent(json.RawMessage(tt.event))
			assert.Equal(t, tt.isWarmup, ok)
			if ok {
				assert.Equal(t, tt.concurrency, warmup.Concurrency)
			}
		})
	}
}

func TestHandleRequest_Proxy(t *testing.T) {
	l := &fakeLabeler{resp: domain.Response{StatusCode: 200, Body: "95.50% de ser do tipo Gato"}}
	fn := newTestFunction(l, &fakeInvoker{})

	event := `{"httpMethod":"GET","queryStringParameters":{"imageUrl":"https://example.com/cat.jpg"}}`
	out, err := fn.handleRequest(context.Background(), json.RawMessage(event))
	require.NoError(t, err)

	resp, ok := out.(events.APIGatewayProxyResponse)
	require.True(t, ok)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "95.50% de ser do tipo Gato", resp.Body)
	assert.Equal(t, "https://example.com/cat.jpg", l.req.ImageURL)
}

func TestHandleRequest_MissingQuery(t *testing.T) {
	l := &fakeLabeler{resp: domain.Response{StatusCode: 500, Body: domain.InternalServerErrorBody}}
	fn := newTestFunction(l, &fakeInvoker{})

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`{"httpMethod":"GET"}`))
	require.NoError(t, err)

	resp := out.(events.APIGatewayProxyResponse)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "", l.req.ImageURL)
}

func TestHandleRequest_MalformedEvent(t *testing.T) {
	fn := newTestFunction(&fakeLabeler{}, &fakeInvoker{})

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`[1,2,3]`))
	require.NoError(t, err)

	resp := out.(events.APIGatewayProxyResponse)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Equal(t, "Internal Server Error", resp.Body)
}

func TestHandleRequest_Warmup(t *testing.T) {
	inv := &fakeInvoker{}
	l := &fakeLabeler{}
	fn := newTestFunction(l, inv)

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":2}`))
	require.NoError(t, err)

	body := out.(map[string]interface{})["body"].(WarmupResponse)
	assert.Equal(t, "warm", body.Status)
	assert.Equal(t, 3, body.InstancesWarmed)
	assert.Empty(t, l.req.ImageURL)

	require.Len(t, inv.inputs, 2)
	for _, in := range inv.inputs {
		assert.Equal(t, "image-labeler", aws.ToString(in.FunctionName))
		assert.Equal(t, types.InvocationTypeEvent, in.InvocationType)

		var child WarmupEvent
		require.NoError(t, json.Unmarshal(in.Payload, &child))
		assert.Equal(t, WarmupEvent{Source: WarmupSource, Concurrency: 0}, child)
	}
}

func TestHandleRequest_WarmupInvokeFailure(t *testing.T) {
	fn := newTestFunction(&fakeLabeler{}, &fakeInvoker{err: errors.New("AccessDenied")})

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":4}`))
	require.NoError(t, err)

	body := out.(map[string]interface{})["body"].(WarmupResponse)
	assert.Equal(t, 1, body.InstancesWarmed)
}

func TestHandleRequest_WarmupBoundsInFlightInvokes(t *testing.T) {
	inv := &fakeInvoker{hold: 5 * time.Millisecond}
	fn := newTestFunction(&fakeLabeler{}, inv)

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":50}`))
	require.NoError(t, err)

	body := out.(map[string]interface{})["body"].(WarmupResponse)
	assert.Equal(t, 51, body.InstancesWarmed)
	assert.Len(t, inv.inputs, 50)
	assert.LessOrEqual(t, inv.maxInFlight, maxInFlightInvokes)
	assert.Greater(t, inv.maxInFlight, 0)
}

func TestHandleRequest_WarmupCountsAcceptedInvokes(t *testing.T) {
	fn := newTestFunction(&fakeLabeler{}, &fakeInvoker{failEvery: 3})

	out, err := fn.handleRequest(context.Background(), json.RawMessage(`{"source":"warmup","concurrency":9}`))
	require.NoError(t, err)

	body := out.(map[string]interface{})["body"].(WarmupResponse)
	assert.Equal(t, 7, body.InstancesWarmed)
}
