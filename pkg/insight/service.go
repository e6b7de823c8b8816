// Package insight turns a stored classical-Chinese document into a structured
// multi-view analysis bundle. Every model- or map-backed step degrades to a
// deterministic local heuristic, so the package never surfaces an upstream
// outage to its caller.
package insight

import (
	"context"
	"time"

	"github.com/guwenlab/insight/pkg/ai"
	"github.com/guwenlab/insight/pkg/geo"
	"github.com/guwenlab/insight/pkg/store"

	"github.com/tidwall/gjson"
)

// Service orchestrates classification, annotation and insight building for
// one document at a time. All fan-out work shares a single bounded slot pool
// so concurrent insight builds cannot flood the chat or geocode providers.
type Service struct {
	storage      store.Storage
	chat         ai.ChatClient
	geocoder     geo.Client
	defaultModel string

	slots chan struct{}

	callTimeout time.Duration
	joinTimeout time.Duration
}

// NewServiceParams configures a Service. Zero values fall back to the
// defaults noted on each field.
type NewServiceParams struct {
	Storage  store.Storage
	Chat     ai.ChatClient
	Geocoder geo.Client

	DefaultModel string

	MaxWorkers  int           // shared fan-out slot count, default 8
	CallTimeout time.Duration // per chat/geocode call, default 60s
	JoinTimeout time.Duration // per builder join, default 30s
}

// NewService creates a Service with a shared bounded worker pool.
func NewService(params NewServiceParams) *Service {
	maxWorkers := params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	callTimeout := params.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	joinTimeout := params.JoinTimeout
	if joinTimeout <= 0 {
		joinTimeout = 30 * time.Second
	}

	return &Service{
		storage:      params.Storage,
		chat:         params.Chat,
		geocoder:     params.Geocoder,
		defaultModel: params.DefaultModel,

		slots: make(chan struct{}, maxWorkers),

		callTimeout: callTimeout,
		joinTimeout: joinTimeout,
	}
}

func (s *Service) acquire() { s.slots <- struct{}{} }
func (s *Service) release() { <-s.slots }

// chatJSON runs one chat turn under the per-call timeout and salvages a JSON
// payload from whatever came back.
func (s *Service) chatJSON(
	ctx context.Context,
	system, user, model string,
	extra ...ai.GenerateOption,
) (gjson.Result, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	opts := []ai.GenerateOption{ai.WithSystemPrompts(system)}
	if model != "" {
		opts = append(opts, ai.WithModel(model))
	} else if s.defaultModel != "" {
		opts = append(opts, ai.WithModel(s.defaultModel))
	}
	opts = append(opts, extra...)

	return ai.ChatJSON(callCtx, s.chat, user, opts...)
}

// task is one fan-out unit: a goroutine that takes a shared slot, computes a
// value, and signals completion by closing done. Results are read only after
// done is closed.
type task[T any] struct {
	done   chan struct{}
	result T
}

func runTask[T any](s *Service, fn func() T) *task[T] {
	t := &task[T]{done: make(chan struct{})}
	go func() {
		s.acquire()
		defer s.release()
		t.result = fn()
		close(t.done)
	}()
	return t
}

// newDeadline returns a channel closed after d. One deadline is shared by a
// whole join group, so the total wait never exceeds d no matter how many
// tasks are awaited.
func newDeadline(d time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	time.AfterFunc(d, func() { close(ch) })
	return ch
}

// await blocks until the task completes or the shared deadline fires. After
// the deadline it takes one final non-blocking snapshot, so a task that
// finished while other awaits consumed the budget is still kept.
func (t *task[T]) await(deadline <-chan struct{}) (T, bool) {
	select {
	case <-t.done:
		return t.result, true
	case <-deadline:
	}
	select {
	case <-t.done:
		return t.result, true
	default:
		var zero T
		return zero, false
	}
}
