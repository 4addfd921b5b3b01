// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestTimer_Fires(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan struct{})

	Timer{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimer_Stop(t *testing.T) {
	defer goleak.VerifyNone(t)

	var fired atomic.Bool

	task := Timer{}.AfterFunc(time.Hour, func() { fired.Store(true) })

	assert.True(t, task.Stop())
	assert.False(t, task.Stop(), "second stop reports nothing was prevented")
	assert.False(t, fired.Load())
}

func TestManual_RunNext(t *testing.T) {
	m := NewManual()

	var order []int

	m.AfterFunc(time.Second, func() { order = append(order, 1) })
	m.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	assert.Equal(t, 2, m.Pending())
	assert.True(t, m.RunNext())
	assert.True(t, m.RunNext())
	assert.False(t, m.RunNext())
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, m.Delays())
}

func TestManual_StopSkipsTask(t *testing.T) {
	m := NewManual()

	var ran bool

	task := m.AfterFunc(time.Second, func() { ran = true })

	assert.True(t, task.Stop())
	assert.Equal(t, 0, m.Pending())
	assert.False(t, m.RunNext())
	assert.False(t, ran)
}

func TestManual_StopAfterRun(t *testing.T) {
	m := NewManual()

	task := m.AfterFunc(0, func() {})

	assert.True(t, m.RunNext())
	assert.False(t, task.Stop())
}

func TestManual_RunAllFollowsRescheduling(t *testing.T) {
	m := NewManual()

	count := 0

	var tick func()
	tick = func() {
		count++
		if count < 5 {
			m.AfterFunc(time.Second, tick)
		}
	}

	m.AfterFunc(0, tick)

	assert.Equal(t, 5, m.RunAll(100))
	assert.Equal(t, 5, count)
	assert.Equal(t, 0, m.Pending())
}

func TestManual_RunAllLimit(t *testing.T) {
	m := NewManual()

	var tick func()
	tick = func() { m.AfterFunc(time.Second, tick) }

	m.AfterFunc(0, tick)

	assert.Equal(t, 3, m.RunAll(3))
	assert.Equal(t, 1, m.Pending())
}
