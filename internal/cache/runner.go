package cache

// Runner executes fire-and-forget work. The cache only assumes that Run
// eventually executes fn exactly once, independently of the caller's
// lifetime; how that happens (goroutine, worker pool) is up to the
// implementation.
type Runner interface {
	Run(fn func())
}

// GoRunner runs each task on its own goroutine.
type GoRunner struct{}

func (GoRunner) Run(fn func()) { go fn() }
