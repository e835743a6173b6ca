package handler

import (
	"medminder-go/internal/state"
	"medminder-go/pkg/logger"
)

type Handlers struct {
	Store *state.Store
	log   logger.Logger
}

func New(store *state.Store, log logger.Logger) *Handlers {
	return &Handlers{
		Store: store,
		log:   log,
	}
}
