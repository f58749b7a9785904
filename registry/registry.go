package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the interface for DynamoDB operations used by the catalog.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var (
	// ErrNotFound is returned when a dataset is not registered.
	ErrNotFound = errors.New("dataset not found")

	// ErrConcurrentUpdate is returned when a publish loses a revision race.
	ErrConcurrentUpdate = errors.New("concurrent dataset update detected")
)

// Dataset is a catalog entry pointing at an archive blob.
type Dataset struct {
	Name      string // catalog key, e.g. "val_nuc"
	Key       string // blob name in the store, e.g. "val_nuc.trks"
	Checksum  string // hex SHA-256 of the archive bytes
	Size      int64
	Revision  uint64
	UpdatedAt time.Time
}

// Catalog is a DynamoDB-backed dataset registry. Revisions use conditional
// writes so concurrent publishers cannot silently overwrite each other.
//
// Table schema:
//   - Partition key: name (string)
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name trackio-datasets \
//	  --attribute-definitions AttributeName=name,AttributeType=S \
//	  --key-schema AttributeName=name,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
type Catalog struct {
	client Client
	table  string
}

// NewCatalog creates a catalog over the given DynamoDB table.
func NewCatalog(client Client, table string) *Catalog {
	return &Catalog{
		client: client,
		table:  table,
	}
}

// Resolve looks up a dataset by name.
func (c *Catalog) Resolve(ctx context.Context, name string) (*Dataset, error) {
	resp, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset %q: %w", name, err)
	}
	if resp.Item == nil {
		return nil, ErrNotFound
	}
	return itemToDataset(resp.Item)
}

// Publish registers a new revision of a dataset. The write succeeds only if
// the stored revision still equals ds.Revision; on success the returned
// dataset carries the incremented revision. Pass Revision 0 for a dataset
// that has never been published.
func (c *Catalog) Publish(ctx context.Context, ds Dataset) (*Dataset, error) {
	next := ds
	next.Revision = ds.Revision + 1
	next.UpdatedAt = time.Now().UTC()

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      datasetToItem(next),
	}
	if ds.Revision == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(#n)")
		input.ExpressionAttributeNames = map[string]string{"#n": "name"}
	} else {
		input.ConditionExpression = aws.String("revision = :rev")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":rev": &types.AttributeValueMemberN{Value: strconv.FormatUint(ds.Revision, 10)},
		}
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrConcurrentUpdate
		}
		return nil, fmt.Errorf("failed to publish dataset %q: %w", ds.Name, err)
	}
	return &next, nil
}

// Unregister removes a dataset from the catalog. The archive blob itself is
// left in place.
func (c *Catalog) Unregister(ctx context.Context, name string) error {
	_, err := c.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(c.table),
		Key: map[string]types.AttributeValue{
			"name": &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to unregister dataset %q: %w", name, err)
	}
	return nil
}

// List returns all registered datasets, sorted by name.
func (c *Catalog) List(ctx context.Context) ([]Dataset, error) {
	var datasets []Dataset

	var startKey map[string]types.AttributeValue
	for {
		resp, err := c.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(c.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list datasets: %w", err)
		}
		for _, item := range resp.Items {
			ds, err := itemToDataset(item)
			if err != nil {
				return nil, err
			}
			datasets = append(datasets, *ds)
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}

func datasetToItem(ds Dataset) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name":       &types.AttributeValueMemberS{Value: ds.Name},
		"key":        &types.AttributeValueMemberS{Value: ds.Key},
		"checksum":   &types.AttributeValueMemberS{Value: ds.Checksum},
		"size":       &types.AttributeValueMemberN{Value: strconv.FormatInt(ds.Size, 10)},
		"revision":   &types.AttributeValueMemberN{Value: strconv.FormatUint(ds.Revision, 10)},
		"updated_at": &types.AttributeValueMemberS{Value: ds.UpdatedAt.Format(time.RFC3339Nano)},
	}
}

func itemToDataset(item map[string]types.AttributeValue) (*Dataset, error) {
	ds := &Dataset{}

	nameAttr, ok := item["name"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("invalid name attribute in catalog item")
	}
	ds.Name = nameAttr.Value

	if attr, ok := item["key"].(*types.AttributeValueMemberS); ok {
		ds.Key = attr.Value
	}
	if attr, ok := item["checksum"].(*types.AttributeValueMemberS); ok {
		ds.Checksum = attr.Value
	}
	if attr, ok := item["size"].(*types.AttributeValueMemberN); ok {
		size, err := strconv.ParseInt(attr.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse size: %w", err)
		}
		ds.Size = size
	}
	if attr, ok := item["revision"].(*types.AttributeValueMemberN); ok {
		rev, err := strconv.ParseUint(attr.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse revision: %w", err)
		}
		ds.Revision = rev
	}
	if attr, ok := item["updated_at"].(*types.AttributeValueMemberS); ok {
		ts, err := time.Parse(time.RFC3339Nano, attr.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		ds.UpdatedAt = ts
	}

	return ds, nil
}
