// Package clienthdl chứa handler HTTP cho domain Client.
// File: handler.client.go
package clienthdl

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/gofiber/fiber/v3"

	basehdl "lead_harvest/internal/api/base/handler"
	clientdto "lead_harvest/internal/api/client/dto"
	clientmodels "lead_harvest/internal/api/client/models"
	clientsvc "lead_harvest/internal/api/client/service"
	"lead_harvest/internal/common"
	"lead_harvest/internal/utility"
)

// ClientHandler xử lý các request HTTP quản lý client/tenant
type ClientHandler struct {
	clientService *clientsvc.ClientService
}

// NewClientHandler tạo mới ClientHandler
func NewClientHandler() (*ClientHandler, error) {
	svc, err := clientsvc.NewClientService()
	if err != nil {
		return nil, err
	}
	return &ClientHandler{clientService: svc}, nil
}

// HandleCreate tạo mới một client (POST /client)
func (h *ClientHandler) HandleCreate(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input clientdto.ClientCreateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		ctx := c.Context()
		exists, err := h.clientService.IsClientExist(ctx, input.ClientID)
		if err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}
		if exists {
			basehdl.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput,
				"Client đã tồn tại: "+input.ClientID, common.StatusConflict, nil))
			return nil
		}

		status := input.Status
		if status == "" {
			status = clientmodels.ClientStatusActive
		}
		created, err := h.clientService.InsertOne(ctx, clientmodels.Client{
			ClientID:       input.ClientID,
			Name:           input.Name,
			Status:         status,
			Stream:         input.Stream,
			DailyTokenCap:  input.DailyTokenCap,
			HarvestEnabled: input.HarvestEnabled,
		})
		basehdl.HandleResponse(c, created, err)
		return nil
	})
}

// HandleFindWithPagination liệt kê client theo trang (GET /client?page=&limit=)
func (h *ClientHandler) HandleFindWithPagination(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		page := utility.P2Int64(c.Query("page", "1"))
		limit := utility.P2Int64(c.Query("limit", "20"))

		result, err := h.clientService.FindWithPagination(c.Context(), nil, page, limit, nil)
		basehdl.HandleResponse(c, result, err)
		return nil
	})
}

// HandleFindOneByClientID tìm client theo định danh logic (GET /client/:clientId)
func (h *ClientHandler) HandleFindOneByClientID(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		client, err := h.clientService.FindOneByClientID(c.Context(), c.Params("clientId"))
		basehdl.HandleResponse(c, client, err)
		return nil
	})
}

// HandleUpdateByClientID cập nhật client theo định danh logic (PUT /client/:clientId)
func (h *ClientHandler) HandleUpdateByClientID(c fiber.Ctx) error {
	return basehdl.SafeHandler(c, func() error {
		var input clientdto.ClientUpdateInput
		if err := basehdl.ParseRequestBody(c, &input); err != nil {
			basehdl.HandleResponse(c, nil, err)
			return nil
		}

		// Chỉ set các field thực sự có trong body
		set := bson.M{}
		if input.Name != "" {
			set["name"] = input.Name
		}
		if input.Status != "" {
			set["status"] = input.Status
		}
		if input.Stream != nil {
			set["stream"] = *input.Stream
		}
		if input.DailyTokenCap != nil {
			set["dailyTokenCap"] = *input.DailyTokenCap
		}
		if input.HarvestEnabled != nil {
			set["harvestEnabled"] = *input.HarvestEnabled
		}
		if len(set) == 0 {
			basehdl.HandleResponse(c, nil, common.ErrRequiredField)
			return nil
		}

		updated, err := h.clientService.UpdateOne(c.Context(),
			bson.M{"clientId": c.Params("clientId")}, bson.M{"$set": set}, nil)
		basehdl.HandleResponse(c, updated, err)
		return nil
	})
}
