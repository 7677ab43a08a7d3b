package database

import (
	"database/sql"
	"errors"
	"sync"
)

// StmtCache keeps prepared statements keyed by their query text.
type StmtCache struct {
	db *sql.DB

	mu    sync.RWMutex
	stmts map[string]*sql.Stmt
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db, stmts: make(map[string]*sql.Stmt)}
}

func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	sc.mu.RLock()
	stmt, ok := sc.stmts[query]
	sc.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if stmt, ok := sc.stmts[query]; ok {
		return stmt, nil
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	sc.stmts[query] = stmt
	return stmt, nil
}

func (sc *StmtCache) Len() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.stmts)
}

// Clear closes every cached statement.
func (sc *StmtCache) Clear() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for q, stmt := range sc.stmts {
		errs = append(errs, stmt.Close())
		delete(sc.stmts, q)
	}
	return errors.Join(errs...)
}
