package inmemdb

import (
	"sync"

	"github.com/ongoza/cyberhub/core/onboarding"
	"github.com/ongoza/cyberhub/core/user"
)

type (
	DB struct {
		user   *userTable
		result *resultTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*onboarding.Result // by session ID
	}
)

// Open returns an empty in-memory database; used in development and tests.
func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		result: &resultTable{table: make(map[string]*onboarding.Result)},
	}
}
