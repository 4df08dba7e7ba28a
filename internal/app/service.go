package app

import (
	"fmt"

	"github.com/shrimpsizemoose/semla/internal/store"
)

type Service struct {
	Config *Config
	Store  store.StudentStore
	Flash  FlashStore
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	flash, err := NewFlashStore(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init flash store: %w", err)
	}

	return &Service{
		Config: config,
		Store:  store,
		Flash:  flash,
	}, nil
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Flash.Close(); err != nil {
		errs = append(errs, fmt.Errorf("flash: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
