package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/kimjiwon0450/Front-HRHub-sub000/internal/config"
	"github.com/openfga/go-sdk/client"
	"github.com/openfga/go-sdk/credentials"
)

// RelationStore 关系型权限存储,OpenFGA 客户端和内存实现都满足该接口
type RelationStore interface {
	CheckPermission(ctx context.Context, userID, relation, objectType, objectID string) (bool, error)
	SetRelation(ctx context.Context, userID, relation, objectType, objectID string) error
	DeleteRelation(ctx context.Context, userID, relation, objectType, objectID string) error
}

// Tuple 一条 (用户, 关系, 对象) 关系元组
type Tuple struct {
	UserID     string
	Relation   string
	ObjectType string
	ObjectID   string
}

// TupleWriter 支持一次写入多条元组的存储
type TupleWriter interface {
	WriteTuples(ctx context.Context, writes, deletes []Tuple) error
}

func fgaUser(userID string) string {
	return "user:" + userID
}

func fgaObject(objectType, objectID string) string {
	return objectType + ":" + objectID
}

// OpenFGAClient OpenFGA 客户端
type OpenFGAClient struct {
	client  *client.OpenFgaClient
	storeID string
	modelID string
}

// NewOpenFGAClient 创建 OpenFGA 客户端
func NewOpenFGAClient(cfg config.OpenFGAConfig) (*OpenFGAClient, error) {
	fgaClient, err := client.NewSdkClient(&client.ClientConfiguration{
		ApiUrl:               cfg.APIURL,
		StoreId:              cfg.StoreID,
		AuthorizationModelId: cfg.ModelID,
		Credentials: &credentials.Credentials{
			Method: credentials.CredentialsMethodNone,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenFGA client: %w", err)
	}
	return &OpenFGAClient{client: fgaClient, storeID: cfg.StoreID, modelID: cfg.ModelID}, nil
}

// NewOpenFGAClientWithRetry 创建客户端并确认服务可读,失败时指数退避重试
func NewOpenFGAClientWithRetry(cfg config.OpenFGAConfig, maxRetries int, retryInterval time.Duration) (*OpenFGAClient, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		var fga *OpenFGAClient
		if fga, err = NewOpenFGAClient(cfg); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = fga.ping(ctx)
			cancel()
			if err == nil {
				return fga, nil
			}
		}
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}
	return nil, fmt.Errorf("failed to connect OpenFGA store %s after %d retries: %w", cfg.StoreID, maxRetries, err)
}

func (c *OpenFGAClient) ping(ctx context.Context) error {
	_, err := c.client.Read(ctx).Execute()
	return err
}

// CheckPermission 检查用户在对象上是否具有关系,viewer 等派生关系由模型计算
func (c *OpenFGAClient) CheckPermission(ctx context.Context, userID, relation, objectType, objectID string) (bool, error) {
	response, err := c.client.Check(ctx).Body(client.ClientCheckRequest{
		User:     fgaUser(userID),
		Relation: relation,
		Object:   fgaObject(objectType, objectID),
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("failed to check %s on %s: %w", relation, fgaObject(objectType, objectID), err)
	}
	return response.GetAllowed(), nil
}

// SetRelation 写入一条关系
func (c *OpenFGAClient) SetRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	return c.WriteTuples(ctx, []Tuple{{userID, relation, objectType, objectID}}, nil)
}

// DeleteRelation 删除一条关系
func (c *OpenFGAClient) DeleteRelation(ctx context.Context, userID, relation, objectType, objectID string) error {
	return c.WriteTuples(ctx, nil, []Tuple{{userID, relation, objectType, objectID}})
}

// WriteTuples 在一次 Write 请求中写入和删除元组
func (c *OpenFGAClient) WriteTuples(ctx context.Context, writes, deletes []Tuple) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}
	body := client.ClientWriteRequest{}
	for _, t := range writes {
		body.Writes = append(body.Writes, client.ClientTupleKey{
			User:     fgaUser(t.UserID),
			Relation: t.Relation,
			Object:   fgaObject(t.ObjectType, t.ObjectID),
		})
	}
	for _, t := range deletes {
		body.Deletes = append(body.Deletes, client.ClientTupleKeyWithoutCondition{
			User:     fgaUser(t.UserID),
			Relation: t.Relation,
			Object:   fgaObject(t.ObjectType, t.ObjectID),
		})
	}
	if _, err := c.client.Write(ctx).Body(body).Execute(); err != nil {
		return fmt.Errorf("failed to write %d tuples and delete %d: %w", len(writes), len(deletes), err)
	}
	return nil
}

// CheckHealth 检查 OpenFGA 连接健康状态
func (c *OpenFGAClient) CheckHealth(ctx context.Context) bool {
	if c == nil || c.client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.ping(ctx) == nil
}
