package service

import (
	"errors"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAddressNotFound    = errors.New("address not found")
	ErrInvalidAddressType = errors.New("address type must be shipping or billing")
)

type AddressInput struct {
	Type      model.AddressType
	FirstName string
	LastName  string
	Company   string
	Address1  string
	Address2  string
	City      string
	State     string
	ZipCode   string
	Country   string
	Phone     string
	IsDefault bool
}

// ToModel builds an unsaved address; an empty type means shipping
func (in AddressInput) ToModel(userID uint) model.Address {
	addressType := in.Type
	if addressType == "" {
		addressType = model.AddressShipping
	}
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = "India"
	}
	return model.Address{
		UserID:    userID,
		Type:      addressType,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Company:   strings.TrimSpace(in.Company),
		Address1:  strings.TrimSpace(in.Address1),
		Address2:  strings.TrimSpace(in.Address2),
		City:      strings.TrimSpace(in.City),
		State:     strings.TrimSpace(in.State),
		ZipCode:   strings.TrimSpace(in.ZipCode),
		Country:   country,
		Phone:     strings.TrimSpace(in.Phone),
	}
}

type AddressService interface {
	ListAddresses(userID uint) ([]model.Address, error)
	CreateAddress(userID uint, input AddressInput) (*model.Address, error)
	UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error)
	DeleteAddress(userID, addressID uint) error
	SetDefaultAddress(userID, addressID uint) (*model.Address, error)
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{
		addressRepo: addressRepo,
	}
}

func validAddressType(t model.AddressType) bool {
	return t == "" || t == model.AddressShipping || t == model.AddressBilling
}

func (s *addressService) ListAddresses(userID uint) ([]model.Address, error) {
	addresses, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch user addresses", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return addresses, nil
}

// CreateAddress makes the first address of each type the default
func (s *addressService) CreateAddress(userID uint, input AddressInput) (*model.Address, error) {
	if !validAddressType(input.Type) {
		return nil, ErrInvalidAddressType
	}

	address := input.ToModel(userID)
	logger.Info("Creating address", map[string]interface{}{
		"user_id": userID,
		"type":    address.Type,
		"city":    address.City,
	})

	existing, err := s.addressRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	makeDefault := input.IsDefault
	if !makeDefault {
		makeDefault = true
		for _, a := range existing {
			if a.Type == address.Type {
				makeDefault = false
				break
			}
		}
	}

	if err := s.addressRepo.Create(&address); err != nil {
		logger.Error("Failed to create address", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if makeDefault {
		if err := s.addressRepo.SetDefault(userID, address.ID, address.Type); err != nil {
			return nil, err
		}
		address.IsDefault = true
	}
	return &address, nil
}

func (s *addressService) UpdateAddress(userID, addressID uint, input AddressInput) (*model.Address, error) {
	if !validAddressType(input.Type) {
		return nil, ErrInvalidAddressType
	}

	address, err := s.addressRepo.FindByIDAndUserID(addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	updated := input.ToModel(userID)
	updated.ID = address.ID
	updated.CreatedAt = address.CreatedAt
	if input.Type == "" {
		updated.Type = address.Type
	}
	// a type change leaves the old type without this default
	updated.IsDefault = address.IsDefault && updated.Type == address.Type

	if err := s.addressRepo.Update(&updated); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"address_id": addressID,
		})
		return nil, err
	}

	if input.IsDefault && !updated.IsDefault {
		if err := s.addressRepo.SetDefault(userID, updated.ID, updated.Type); err != nil {
			return nil, err
		}
		updated.IsDefault = true
	}

	logger.Info("Address updated", map[string]interface{}{
		"address_id": addressID,
	})
	return &updated, nil
}

func (s *addressService) DeleteAddress(userID, addressID uint) error {
	if err := s.addressRepo.Delete(addressID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAddressNotFound
		}
		return err
	}
	logger.Info("Address deleted", map[string]interface{}{
		"address_id": addressID,
		"user_id":    userID,
	})
	return nil
}

func (s *addressService) SetDefaultAddress(userID, addressID uint) (*model.Address, error) {
	address, err := s.addressRepo.FindByIDAndUserID(addressID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	if err := s.addressRepo.SetDefault(userID, addressID, address.Type); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	address.IsDefault = true
	return address, nil
}
