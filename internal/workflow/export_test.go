package workflow

import (
	"context"
	"time"
)

func (w *Workflow) SetSleep(sleep func(context.Context, time.Duration) error) {
	w.sleep = sleep
}
