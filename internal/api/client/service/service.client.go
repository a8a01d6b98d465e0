// Package clientsvc chứa service cho domain Client.
// File: service.client.go
package clientsvc

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	basesvc "lead_harvest/internal/api/base/service"
	clientmodels "lead_harvest/internal/api/client/models"
	"lead_harvest/internal/common"
	"lead_harvest/internal/global"
)

// ClientService là cấu trúc chứa các phương thức liên quan đến client/tenant
type ClientService struct {
	*basesvc.BaseServiceMongoImpl[clientmodels.Client]
}

// NewClientService tạo mới ClientService
func NewClientService() (*ClientService, error) {
	coll, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Clients)
	if !exist {
		return nil, fmt.Errorf("failed to get clients collection: %v", common.ErrNotFound)
	}
	return &ClientService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[clientmodels.Client](coll),
	}, nil
}

// FindOneByClientID tìm một client theo định danh logic
func (s *ClientService) FindOneByClientID(ctx context.Context, clientID string) (clientmodels.Client, error) {
	return s.FindOne(ctx, bson.M{"clientId": clientID}, nil)
}

// FindActiveByStream trả về các client Active có bật harvest thuộc một stream,
// đây là danh sách tenant mà scheduler đưa vào mỗi run.
func (s *ClientService) FindActiveByStream(ctx context.Context, stream int) ([]clientmodels.Client, error) {
	filter := bson.M{
		"status":         clientmodels.ClientStatusActive,
		"harvestEnabled": true,
		"stream":         stream,
	}
	return s.Find(ctx, filter, nil)
}

// IsClientExist kiểm tra client có tồn tại theo định danh logic không
func (s *ClientService) IsClientExist(ctx context.Context, clientID string) (bool, error) {
	return s.DocumentExists(ctx, bson.M{"clientId": clientID})
}
