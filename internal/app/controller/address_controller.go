package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
)

type AddressController struct {
	addressService service.AddressService
}

func NewAddressController(addressService service.AddressService) *AddressController {
	return &AddressController{addressService: addressService}
}

type AddressRequest struct {
	Type      string `json:"type" binding:"omitempty,oneof=shipping billing"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Company   string `json:"company" binding:"omitempty,max=100"`
	Address1  string `json:"address1" binding:"required,max=255"`
	Address2  string `json:"address2" binding:"omitempty,max=255"`
	City      string `json:"city" binding:"required,max=100"`
	State     string `json:"state" binding:"omitempty,max=100"`
	ZipCode   string `json:"zip_code" binding:"omitempty,max=20"`
	Country   string `json:"country" binding:"omitempty,max=100"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	IsDefault bool   `json:"is_default"`
}

func (r AddressRequest) input() service.AddressInput {
	return service.AddressInput{
		Type:      model.AddressType(r.Type),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Company:   r.Company,
		Address1:  r.Address1,
		Address2:  r.Address2,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		Phone:     r.Phone,
		IsDefault: r.IsDefault,
	}
}

// GET /api/v1/addresses
func (ctrl *AddressController) ListAddresses(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	addresses, err := ctrl.addressService.ListAddresses(userID)
	if err != nil {
		respondError(c, err, "fetch addresses")
		return
	}
	apperrors.OK(c, gin.H{"addresses": addresses})
}

// POST /api/v1/addresses
func (ctrl *AddressController) CreateAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	address, err := ctrl.addressService.CreateAddress(userID, req.input())
	if err != nil {
		respondError(c, err, "create address")
		return
	}
	apperrors.Created(c, "Address added", gin.H{"address": address})
}

// PUT /api/v1/addresses/:id
func (ctrl *AddressController) UpdateAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	address, err := ctrl.addressService.UpdateAddress(userID, id, req.input())
	if err != nil {
		respondError(c, err, "update address")
		return
	}
	apperrors.OKWithMessage(c, "Address updated", gin.H{"address": address})
}

// DELETE /api/v1/addresses/:id
func (ctrl *AddressController) DeleteAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.addressService.DeleteAddress(userID, id); err != nil {
		respondError(c, err, "delete address")
		return
	}
	apperrors.OKWithMessage(c, "Address deleted", nil)
}

// PUT /api/v1/addresses/:id/default
func (ctrl *AddressController) SetDefaultAddress(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	address, err := ctrl.addressService.SetDefaultAddress(userID, id)
	if err != nil {
		respondError(c, err, "update address")
		return
	}
	apperrors.OK(c, gin.H{"address": address})
}
