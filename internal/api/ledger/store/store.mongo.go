package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"lead_harvest/internal/common"
)

// MongoRecordStore triển khai RecordStore trên MongoDB.
// Mỗi table là một collection; chỉ dùng đúng 3 thao tác của contract —
// không index, không transaction, không upsert, để hành vi khớp với
// các store kiểu Airtable mà ledger phải chạy được lên trên.
type MongoRecordStore struct {
	db *mongo.Database
}

// NewMongoRecordStore tạo store trên một database MongoDB
func NewMongoRecordStore(db *mongo.Database) *MongoRecordStore {
	return &MongoRecordStore{db: db}
}

// FindOne tìm một bản ghi theo filter exact-match (AND trên mọi field)
func (s *MongoRecordStore) FindOne(ctx context.Context, table string, filter Filter) (*Record, error) {
	var doc bson.M
	err := s.db.Collection(table).FindOne(ctx, bson.M(filter)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, common.ConvertMongoError(err)
	}
	return recordFromDoc(doc), nil
}

// FindByID đọc một bản ghi theo id do store cấp
func (s *MongoRecordStore) FindByID(ctx context.Context, table string, id string) (*Record, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat,
			"record id không hợp lệ: "+id, common.StatusBadRequest, err)
	}

	var doc bson.M
	if err := s.db.Collection(table).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, common.ConvertMongoError(err)
	}
	return recordFromDoc(doc), nil
}

// Find tìm tất cả bản ghi theo filter
func (s *MongoRecordStore) Find(ctx context.Context, table string, filter Filter) ([]*Record, error) {
	cursor, err := s.db.Collection(table).Find(ctx, bson.M(filter))
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	records := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDoc(doc))
	}
	return records, nil
}

// Create tạo bản ghi mới, thêm timestamps createdAt/updatedAt (UnixMilli)
func (s *MongoRecordStore) Create(ctx context.Context, table string, fields map[string]interface{}) (*Record, error) {
	doc := bson.M{}
	for k, v := range fields {
		doc[k] = v
	}
	now := time.Now().UnixMilli()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	result, err := s.db.Collection(table).InsertOne(ctx, doc)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	// Lấy lại document vừa tạo
	var created bson.M
	if err := s.db.Collection(table).FindOne(ctx, bson.M{"_id": result.InsertedID}).Decode(&created); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return recordFromDoc(created), nil
}

// UpdateByID cập nhật partial bản ghi theo id ($set các field truyền vào)
func (s *MongoRecordStore) UpdateByID(ctx context.Context, table string, id string, fields map[string]interface{}) (*Record, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.NewError(common.ErrCodeValidationFormat,
			"record id không hợp lệ: "+id, common.StatusBadRequest, err)
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	set["updatedAt"] = time.Now().UnixMilli()

	result, err := s.db.Collection(table).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if result.MatchedCount == 0 {
		return nil, common.ErrNotFound
	}

	var updated bson.M
	if err := s.db.Collection(table).FindOne(ctx, bson.M{"_id": objID}).Decode(&updated); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return recordFromDoc(updated), nil
}

// recordFromDoc chuyển bson.M thành Record, tách _id ra khỏi fields
func recordFromDoc(doc bson.M) *Record {
	rec := &Record{Fields: map[string]interface{}{}}
	for k, v := range doc {
		if k == "_id" {
			if objID, ok := v.(primitive.ObjectID); ok {
				rec.ID = objID.Hex()
			}
			continue
		}
		rec.Fields[k] = v
	}
	return rec
}
