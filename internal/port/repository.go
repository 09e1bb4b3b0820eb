package port

import (
	"github.com/vertextoedge/audio-dedup/internal/domain/repository"
)

// SignalRepository is an alias to domain repository interface
type SignalRepository = repository.SignalRepository

// JournalRepository is an alias to domain repository interface
type JournalRepository = repository.JournalRepository

// Store is an alias to domain repository interface
type Store = repository.Store
