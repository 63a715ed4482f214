package compiler

// semaphore bounds the number of documents compiled at once.
type semaphore struct {
	slots chan struct{}
}

func newSemaphore(n int) *semaphore {
	return &semaphore{
		slots: make(chan struct{}, n),
	}
}

func (self *semaphore) Lock() {
	self.slots <- struct{}{}
}

func (self *semaphore) Unlock() {
	<-self.slots
}
