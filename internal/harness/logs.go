package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/jrzesz33/topicqueue/internal/models"
)

// LogReader takes a snapshot of the events in a log group
type LogReader interface {
	GetLogEventInGroup(ctx context.Context, logGroupPrefix string) ([]models.LogEvent, error)
}

// CloudWatchLogsAPI is the subset of the CloudWatch Logs client the reader needs
type CloudWatchLogsAPI interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

const defaultMaxPages = 20

// CloudWatchLogReader reads Lambda log events from CloudWatch Logs
type CloudWatchLogReader struct {
	client   CloudWatchLogsAPI
	maxPages int
	logger   *slog.Logger
}

// NewCloudWatchLogReader creates a new CloudWatch log reader
func NewCloudWatchLogReader(client CloudWatchLogsAPI, logger *slog.Logger) *CloudWatchLogReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchLogReader{
		client:   client,
		maxPages: defaultMaxPages,
		logger:   logger,
	}
}

// GetLogEventInGroup returns the events of the first log group whose name starts with
// logGroupPrefix, across all of its streams, oldest first. No matching group yields an
// empty snapshot rather than an error.
func (r *CloudWatchLogReader) GetLogEventInGroup(ctx context.Context, logGroupPrefix string) ([]models.LogEvent, error) {
	groups, err := r.client.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(logGroupPrefix),
		Limit:              aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe log groups with prefix %s: %w", logGroupPrefix, err)
	}
	if len(groups.LogGroups) == 0 {
		r.logger.DebugContext(ctx, "no log group yet", slog.String("prefix", logGroupPrefix))
		return nil, nil
	}

	groupName := aws.ToString(groups.LogGroups[0].LogGroupName)
	paginator := cloudwatchlogs.NewFilterLogEventsPaginator(r.client, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName: aws.String(groupName),
	})

	var events []models.LogEvent
	for pages := 0; paginator.HasMorePages() && pages < r.maxPages; pages++ {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read log events from %s: %w", groupName, err)
		}
		for _, e := range page.Events {
			events = append(events, models.LogEvent{
				Message:   aws.ToString(e.Message),
				Timestamp: time.UnixMilli(aws.ToInt64(e.Timestamp)).UTC(),
				LogStream: aws.ToString(e.LogStreamName),
				EventID:   aws.ToString(e.EventId),
			})
		}
	}

	if paginator.HasMorePages() {
		r.logger.WarnContext(ctx, "log event page limit reached, newer events not read",
			slog.String("log_group", groupName),
			slog.Int("max_pages", r.maxPages),
			slog.Int("event_count", len(events)),
		)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	r.logger.DebugContext(ctx, "read log events",
		slog.String("log_group", groupName),
		slog.Int("event_count", len(events)),
	)
	return events, nil
}
