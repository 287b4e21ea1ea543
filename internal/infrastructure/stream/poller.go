package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	streamattr "github.com/aws/aws-sdk-go-v2/feature/dynamodbstreams/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/memphis-pe/oc-api/internal/config"
	"github.com/memphis-pe/oc-api/internal/domain"
)

// Handler receives order change events from the stream. Implementations must
// not block for long; the poller invokes them inline between GetRecords calls.
// Handler failures never propagate back to the feed — the document mutation
// already committed before the event was emitted.
type Handler interface {
	OrderCreated(ctx context.Context, after *domain.Order)
	OrderModified(ctx context.Context, before, after *domain.Order)
}

// NewClient creates a DynamoDB Streams client, honoring the LocalStack
// endpoint override like the main DynamoDB client does.
func NewClient(cfg *config.Config) *dynamodbstreams.Client {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load AWS config for streams: " + err.Error())
	}
	clientOpts := []func(*dynamodbstreams.Options){}
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *dynamodbstreams.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return dynamodbstreams.NewFromConfig(awsCfg, clientOpts...)
}

// Poller tails the orders table stream and feeds change events to a Handler.
// One Poller runs per process; it keeps per-shard iterators in memory only,
// so a restart resumes from the stream tip rather than replaying history.
type Poller struct {
	db       *dynamodb.Client
	streams  *dynamodbstreams.Client
	table    string
	handler  Handler
	interval time.Duration

	iterators map[string]*string
	started   bool
}

func NewPoller(db *dynamodb.Client, streams *dynamodbstreams.Client, table string, handler Handler, interval time.Duration) *Poller {
	return &Poller{
		db:        db,
		streams:   streams,
		table:     table,
		handler:   handler,
		interval:  interval,
		iterators: make(map[string]*string),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	arn := p.waitForStream(ctx)
	if arn == "" {
		return
	}
	slog.Info("order stream poller started", "table", p.table, "stream", arn)

	for {
		p.refreshShards(ctx, arn)
		p.drainShards(ctx)
		p.started = true

		select {
		case <-ctx.Done():
			slog.Info("order stream poller stopped")
			return
		case <-time.After(p.interval):
		}
	}
}

// waitForStream resolves the table's LatestStreamArn, retrying until the
// stream exists or ctx is cancelled.
func (p *Poller) waitForStream(ctx context.Context) string {
	for {
		out, err := p.db.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(p.table),
		})
		if err == nil && out.Table != nil && out.Table.LatestStreamArn != nil {
			return *out.Table.LatestStreamArn
		}
		if err != nil {
			slog.Warn("describe table for stream", "table", p.table, "err", err)
		}
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(p.interval):
		}
	}
}

// refreshShards discovers shards and opens iterators for new ones. Shards
// present at startup begin at LATEST so history is not replayed; shards that
// appear later begin at TRIM_HORIZON so no record between rotations is lost.
func (p *Poller) refreshShards(ctx context.Context, arn string) {
	out, err := p.streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
		StreamArn: aws.String(arn),
	})
	if err != nil {
		slog.Warn("describe stream", "err", err)
		return
	}
	for _, shard := range out.StreamDescription.Shards {
		shardID := aws.ToString(shard.ShardId)
		if _, known := p.iterators[shardID]; known {
			continue
		}
		iterType := streamtypes.ShardIteratorTypeTrimHorizon
		if !p.started {
			iterType = streamtypes.ShardIteratorTypeLatest
		}
		itOut, err := p.streams.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
			StreamArn:         aws.String(arn),
			ShardId:           shard.ShardId,
			ShardIteratorType: iterType,
		})
		if err != nil {
			slog.Warn("get shard iterator", "shard", shardID, "err", err)
			continue
		}
		p.iterators[shardID] = itOut.ShardIterator
	}
}

// drainShards reads pending records from every open shard.
func (p *Poller) drainShards(ctx context.Context) {
	for shardID, iter := range p.iterators {
		if iter == nil {
			delete(p.iterators, shardID)
			continue
		}
		out, err := p.streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: iter,
			Limit:         aws.Int32(100),
		})
		if err != nil {
			slog.Warn("get records", "shard", shardID, "err", err)
			delete(p.iterators, shardID)
			continue
		}
		for _, rec := range out.Records {
			p.handleRecord(ctx, rec)
		}
		p.iterators[shardID] = out.NextShardIterator
	}
}

func (p *Poller) handleRecord(ctx context.Context, rec streamtypes.Record) {
	if rec.Dynamodb == nil {
		return
	}
	switch rec.EventName {
	case streamtypes.OperationTypeInsert:
		after := unmarshalOrder(rec.Dynamodb.NewImage)
		if after != nil {
			p.handler.OrderCreated(ctx, after)
		}
	case streamtypes.OperationTypeModify:
		before := unmarshalOrder(rec.Dynamodb.OldImage)
		after := unmarshalOrder(rec.Dynamodb.NewImage)
		if before != nil && after != nil {
			p.handler.OrderModified(ctx, before, after)
		}
	case streamtypes.OperationTypeRemove:
		// Deletions carry no notification.
	}
}

func unmarshalOrder(image map[string]streamtypes.AttributeValue) *domain.Order {
	if len(image) == 0 {
		return nil
	}
	var o domain.Order
	if err := streamattr.UnmarshalMap(image, &o); err != nil {
		slog.Warn("unmarshal order image", "err", err)
		return nil
	}
	return &o
}
