package types

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Timer runs a function once after a period of inactivity. Reset restarts
// the period.
type Timer struct {
	name  string
	delay time.Duration
	fnc   func()

	m     *sync.Mutex
	timer *time.Timer
}

func NewTimer(name string, delay time.Duration, f func()) *Timer {
	return &Timer{
		name:  name,
		delay: delay,
		fnc:   f,
		m:     &sync.Mutex{},
	}
}

func (t *Timer) Start() error {
	t.m.Lock()
	defer t.m.Unlock()
	if t.timer != nil {
		return fmt.Errorf("timer %s already started", t.name)
	}
	log.Debugf("timer %s started (%s)", t.name, t.delay)
	t.timer = time.AfterFunc(t.delay, func() {
		log.Infof("timer %s triggered", t.name)
		if t.fnc != nil {
			t.fnc()
		}
	})
	return nil
}

// Reset restarts a started timer. It reports false if the timer was
// stopped or already fired.
func (t *Timer) Reset() bool {
	t.m.Lock()
	defer t.m.Unlock()
	if t.timer == nil || !t.timer.Stop() {
		return false
	}
	t.timer.Reset(t.delay)
	return true
}

func (t *Timer) Stop() {
	t.m.Lock()
	defer t.m.Unlock()
	if t.timer == nil {
		return
	}
	if t.timer.Stop() {
		log.Debugf("timer %s stopped", t.name)
	}
	t.timer = nil
}
