package service

import (
	"log/slog"

	"store-ledger/internal/domain"
	"store-ledger/internal/repository"
)

// ReportingService serves the read-only aggregate queries. Reads run
// in autocommit and tolerate slightly stale results.
type ReportingService struct {
	store  *repository.Store
	logger *slog.Logger
}

func NewReportingService(store *repository.Store, logger *slog.Logger) *ReportingService {
	return &ReportingService{
		store:  store,
		logger: logger,
	}
}

func (s *ReportingService) UserStats(userID int64) (*domain.UserStats, error) {
	return s.store.Reporting().UserStats(userID)
}

func (s *ReportingService) UserIDByUsername(username string) (int64, error) {
	return s.store.Reporting().UserIDByUsername(username)
}

// Overview collects the store-wide counters in one call.
func (s *ReportingService) Overview() (*domain.StoreOverview, error) {
	total, err := s.store.Reporting().TotalUsers()
	if err != nil {
		return nil, err
	}

	active, err := s.store.Reporting().ActiveUsersLast24h()
	if err != nil {
		return nil, err
	}

	volume, err := s.store.Reporting().TotalTransactionVolume()
	if err != nil {
		return nil, err
	}

	return &domain.StoreOverview{
		TotalUsers:        total,
		ActiveUsersLast24: active,
		CompletedVolume:   volume,
	}, nil
}
