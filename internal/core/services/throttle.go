// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultPostFetchDelay is the pause after every transcript fetch, which
// keeps a burst of submissions from tripping the transcript provider's limits.
const DefaultPostFetchDelay = 10 * time.Second

// Throttle paces calls to the transcript source. Wait returns early with
// the context's error when ctx is done.
type Throttle interface {
	Wait(ctx context.Context) error
}

// DelayThrottle sleeps for a fixed duration on every call.
type DelayThrottle struct {
	Delay time.Duration
}

// NewDelayThrottle returns a throttle that waits delay, or DefaultPostFetchDelay when delay is negative.
func NewDelayThrottle(delay time.Duration) *DelayThrottle {
	if delay < 0 {
		delay = DefaultPostFetchDelay
	}
	return &DelayThrottle{Delay: delay}
}

func (t *DelayThrottle) Wait(ctx context.Context) error {
	if t.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(t.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LimiterThrottle spaces calls with a token bucket, so only a burst of
// fetches pays the delay.
type LimiterThrottle struct {
	Limiter *rate.Limiter
}

// NewLimiterThrottle allows one call per interval with the given burst.
func NewLimiterThrottle(interval time.Duration, burst int) *LimiterThrottle {
	return &LimiterThrottle{Limiter: rate.NewLimiter(rate.Every(interval), max(burst, 1))}
}

func (t *LimiterThrottle) Wait(ctx context.Context) error {
	return t.Limiter.Wait(ctx)
}

// NoThrottle never waits.
type NoThrottle struct{}

func (NoThrottle) Wait(ctx context.Context) error {
	return ctx.Err()
}
