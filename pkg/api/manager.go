package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nxneeraj/phishwatch/pkg/types"
)

var ErrCheckNotFound = errors.New("check not found")

// CheckLog keeps the most recent verdicts in memory, oldest evicted first.
type CheckLog struct {
	mu      sync.RWMutex // Protects records and order
	records map[string]*types.CheckRecord
	order   []string
	limit   int
}

// NewCheckLog creates a log holding at most limit checks.
func NewCheckLog(limit int) *CheckLog {
	if limit <= 0 {
		limit = 1
	}
	return &CheckLog{
		records: make(map[string]*types.CheckRecord),
		limit:   limit,
	}
}

// Begin records the start of a check and returns its ID.
func (l *CheckLog) Begin(rawURL string) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := uuid.New().String()
	l.records[id] = &types.CheckRecord{
		CheckID:   id,
		URL:       rawURL,
		StartTime: time.Now().UTC(),
	}
	l.order = append(l.order, id)
	for len(l.order) > l.limit {
		delete(l.records, l.order[0])
		l.order = l.order[1:]
	}
	return id
}

// Finish stores the outcome of a check.
func (l *CheckLog) Finish(id, result string, score float64, feats map[string]float64, err error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return ErrCheckNotFound
	}
	rec.Result = result
	rec.Score = score
	rec.Features = feats
	rec.EndTime = time.Now().UTC()
	if err != nil {
		rec.Error = err.Error()
	}
	return nil
}

// Get returns a copy of a stored check.
func (l *CheckLog) Get(id string) (*types.CheckRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.records[id]
	if !ok {
		return nil, ErrCheckNotFound
	}
	cp := *rec
	if rec.Features != nil {
		cp.Features = make(map[string]float64, len(rec.Features))
		for k, v := range rec.Features {
			cp.Features[k] = v
		}
	}
	return &cp, nil
}

// Len returns how many checks are held.
func (l *CheckLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}
