package artifact

import (
	"container/heap"
	"sync"
	"time"
)

var (
	_ Store          = &Timeout{}
	_ heap.Interface = &Timeout{}
)

// Timeout is an artifact store with a maximum TTL per artifact
type Timeout struct {
	mu sync.Mutex
	Store
	timeout   time.Duration
	artifacts []timeoutArtifact
	idToIndex map[string]int
}

type timeoutArtifact struct {
	id   string
	time time.Time
}

// NewTimeout creates an artifact store that expires entries after the TTL
func NewTimeout(s Store, timeout time.Duration, checkInterval time.Duration) Store {
	t := &Timeout{
		Store:     s,
		timeout:   timeout,
		artifacts: make([]timeoutArtifact, 0),
		idToIndex: make(map[string]int),
	}
	go t.checkTimeoutLoop(checkInterval)
	return t
}

func (t *Timeout) checkTimeoutLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for {
		t.checkTimeoutAndRemove()
		<-ticker.C
	}
}

func (t *Timeout) checkTimeoutAndRemove() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for len(t.artifacts) > 0 && t.artifacts[0].time.Add(t.timeout).Before(now) {
		a := t.artifacts[0]
		t.Store.Remove(a.id)
		heap.Pop(t)
	}
}

func (t *Timeout) Len() int {
	return len(t.artifacts)
}

func (t *Timeout) Less(i, j int) bool {
	return t.artifacts[i].time.Before(t.artifacts[j].time)
}

func (t *Timeout) Swap(i, j int) {
	t.artifacts[i], t.artifacts[j] = t.artifacts[j], t.artifacts[i]
	t.idToIndex[t.artifacts[i].id] = i
	t.idToIndex[t.artifacts[j].id] = j
}

func (t *Timeout) Push(x any) {
	e := x.(timeoutArtifact)
	t.artifacts = append(t.artifacts, e)
	t.idToIndex[e.id] = len(t.artifacts) - 1
}

func (t *Timeout) Pop() any {
	e := t.artifacts[len(t.artifacts)-1]
	t.artifacts = t.artifacts[:len(t.artifacts)-1]
	delete(t.idToIndex, e.id)
	return e
}

func (t *Timeout) Add(name, path string) (string, error) {
	id, err := t.Store.Add(name, path)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if index, ok := t.idToIndex[id]; ok {
		// artifact rebuilt under the same id, refresh its deadline
		t.artifacts[index].time = time.Now()
		heap.Fix(t, index)
		return id, nil
	}
	heap.Push(t, timeoutArtifact{id, time.Now()})
	return id, nil
}

func (t *Timeout) Remove(id string) bool {
	success := t.Store.Remove(id)

	t.mu.Lock()
	defer t.mu.Unlock()

	index, ok := t.idToIndex[id]
	if !ok {
		return success
	}
	heap.Remove(t, index)
	return success
}

func (t *Timeout) Get(id string) (string, string) {
	name, path := t.Store.Get(id)

	t.mu.Lock()
	defer t.mu.Unlock()

	index, ok := t.idToIndex[id]
	if !ok {
		return name, path
	}
	t.artifacts[index].time = time.Now()
	heap.Fix(t, index)

	return name, path
}
