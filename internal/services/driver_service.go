package services

import (
	"context"
	"errors"
	"time"

	"rideshare/internal/models"
	"rideshare/internal/repositories/interfaces"
	"rideshare/internal/utils"
	"rideshare/internal/validators"
	"rideshare/pkg/logger"
)

type DriverService interface {
	// RegisterDriver creates the caller's driver profile or updates it when it exists.
	RegisterDriver(ctx context.Context, identity *models.Identity, req *models.RegisterDriverRequest) (*models.Driver, error)
	GetDriver(ctx context.Context, driverID string) (*models.Driver, error)
	UpdateLocation(ctx context.Context, identity *models.Identity, coordinate models.Coordinate) error
	SetAvailability(ctx context.Context, identity *models.Identity, available bool) error
}

type driverService struct {
	driverRepo   interfaces.DriverRepository
	logger       *logger.Logger
	storeTimeout time.Duration
}

func NewDriverService(driverRepo interfaces.DriverRepository, logger *logger.Logger, storeTimeout time.Duration) DriverService {
	return &driverService{
		driverRepo:   driverRepo,
		logger:       logger,
		storeTimeout: storeTimeoutOrDefault(storeTimeout),
	}
}

func (s *driverService) RegisterDriver(ctx context.Context, identity *models.Identity, req *models.RegisterDriverRequest) (*models.Driver, error) {
	if err := requireDriver(identity); err != nil {
		return nil, err
	}
	if err := validators.Validate(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	seats := req.CarSeats
	if seats == 0 {
		seats = utils.DefaultCarSeats
	}

	existing, err := s.driverRepo.GetDriverByUserID(ctx, identity.UserID)
	switch {
	case err == nil:
		existing.DisplayName = req.DisplayName
		existing.CarType = req.CarType
		existing.CarSeats = seats
		existing.CarImageURL = req.CarImageURL
		if req.DeviceToken != "" {
			existing.DeviceToken = req.DeviceToken
		}
		if err := s.driverRepo.UpdateProfile(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.WithUserID(identity.UserID).Info("Driver profile updated")
		return existing, nil

	case errors.Is(err, utils.ErrNotFound):
		driver := &models.Driver{
			ID:          identity.UserID,
			UserID:      identity.UserID,
			DisplayName: req.DisplayName,
			CarType:     req.CarType,
			CarSeats:    seats,
			CarImageURL: req.CarImageURL,
			DeviceToken: req.DeviceToken,
			CreatedAt:   timeNow(),
		}
		if err := s.driverRepo.CreateDriver(ctx, driver); err != nil {
			return nil, err
		}
		s.logger.WithUserID(identity.UserID).Info("Driver registered")
		return driver, nil

	default:
		return nil, err
	}
}

func (s *driverService) GetDriver(ctx context.Context, driverID string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.driverRepo.GetDriverByID(ctx, driverID)
}

func (s *driverService) UpdateLocation(ctx context.Context, identity *models.Identity, coordinate models.Coordinate) error {
	if err := requireDriver(identity); err != nil {
		return err
	}
	if err := validateCoordinate(coordinate, "location"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.driverRepo.UpdateLocation(ctx, identity.UserID, models.NewLocation(coordinate, ""), timeNow())
}

func (s *driverService) SetAvailability(ctx context.Context, identity *models.Identity, available bool) error {
	if err := requireDriver(identity); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.driverRepo.UpdateAvailability(ctx, identity.UserID, available); err != nil {
		return err
	}

	s.logger.WithUserID(identity.UserID).WithField("available", available).Info("Driver availability changed")
	return nil
}

func requireDriver(identity *models.Identity) error {
	if identity == nil || !identity.IsDriver {
		return utils.NewError(utils.KindForbidden, "driver account required")
	}
	return nil
}
