package cache

import "time"

// startJanitor runs CleanExpired on every tick until Close. The ticker is
// created before the goroutine starts so a fake clock sees it immediately.
func (c *OperationCache) startJanitor(interval time.Duration) {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	ticker := c.engine.Clock.NewTicker(interval)

	go func() {
		defer close(c.done)
		defer ticker.Stop()

		for {
			select {
			case <-c.stop:
				return
			case <-ticker.Chan():
				if n := c.CleanExpired(); n > 0 {
					c.engine.Logger.WithField("removed", n).Debug("swept expired cache entries")
				}
			}
		}
	}()
}
