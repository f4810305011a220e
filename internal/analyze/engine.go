package analyze

import (
	"fmt"
	"sync"

	"github.com/open-edge-platform/pkg-depscan/internal/utils/logger"
)

// Verdict is a stage's answer for one file. Declining is not an error; it
// means "not my concern" and tells the engine to move on to the next chain.
type Verdict int

const (
	Decline Verdict = iota
	Accept
)

// StageFunc inspects a file and may record facts into the target's bucket.
type StageFunc func(f *File, b *Bucket) (Verdict, error)

// Stage is one named step in a chain.
type Stage struct {
	Name string
	Run  StageFunc
}

// Chain is an ordered list of stages. A file completes a chain when every
// stage accepts it; the first Decline abandons the chain.
type Chain struct {
	Name   string
	Stages []Stage
}

func (c Chain) run(f *File, b *Bucket) (bool, error) {
	for _, s := range c.Stages {
		v, err := s.Run(f, b)
		if err != nil {
			return false, fmt.Errorf("stage %s: %w", s.Name, err)
		}
		if v == Decline {
			return false, nil
		}
	}
	return true, nil
}

// Engine owns the chains and the per-target buckets. Stateless between
// files apart from the buckets, so distinct files may be analyzed
// concurrently on separate goroutines.
type Engine struct {
	chains []Chain

	mu      sync.Mutex
	buckets map[string]*Bucket
}

func NewEngine(chains ...Chain) *Engine {
	return &Engine{
		chains:  chains,
		buckets: make(map[string]*Bucket),
	}
}

// Bucket returns the fact accumulator for a target, creating it on first use.
func (e *Engine) Bucket(target string) *Bucket {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.buckets[target]
	if !ok {
		b = NewBucket()
		e.buckets[target] = b
	}
	return b
}

// Targets returns the names of every bucket created so far, unordered.
func (e *Engine) Targets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.buckets))
	for t := range e.buckets {
		out = append(out, t)
	}
	return out
}

// Analyze runs the file through each chain in order, stopping at the first
// chain the file completes. A file declined by every chain is simply not
// analyzable by any registered stage; that is a normal outcome.
func (e *Engine) Analyze(f *File) error {
	log := logger.Logger()
	b := e.Bucket(f.Target)

	for _, c := range e.chains {
		done, err := c.run(f, b)
		if err != nil {
			return fmt.Errorf("chain %s: %s: %w", c.Name, f.Path, err)
		}
		if done {
			log.Debugf("chain %s completed for %s", c.Name, f.Path)
			return nil
		}
	}
	return nil
}
