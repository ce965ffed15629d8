package services

import (
	"context"

	"chessfam/models"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 100
)

type PlayerDirectory interface {
	SearchPlayers(ctx context.Context, query string, limit int) ([]models.Player, error)
}

// PlayerSearch lets organizers look up players in the local directory
// mirror. Emails are never exposed.
type PlayerSearch struct {
	directory PlayerDirectory
}

func NewPlayerSearch(directory PlayerDirectory) *PlayerSearch {
	return &PlayerSearch{directory: directory}
}

func (s *PlayerSearch) Search(ctx context.Context, query string, limit int) ([]models.PlayerSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	players, err := s.directory.SearchPlayers(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	res := make([]models.PlayerSummary, len(players))
	for i := range players {
		res[i] = players[i].Summary()
	}
	return res, nil
}
