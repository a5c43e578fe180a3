package steam

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ReviewSummary struct {
	Description string `json:"review_score_desc"`
	Positive    int64  `json:"total_positive"`
	Negative    int64  `json:"total_negative"`
	Total       int64  `json:"total_reviews"`
}

type reviewsResponse struct {
	Success      int            `json:"success"`
	QuerySummary *ReviewSummary `json:"query_summary"`
}

// Reviews fetches the review summary of an app, ok is false when steam has
// no summary for it.
func (c Client) Reviews(ctx context.Context, appId int64) (summary ReviewSummary, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "Reviews")
	defer span.End()
	span.SetAttributes(attribute.Int64("appid", appId))

	body, err := c.get(ctx, fmt.Sprintf("/appreviews/%d", appId), map[string]string{
		"json":          "1",
		"language":      "english",
		"filter":        "all",
		"purchase_type": "all",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return ReviewSummary{}, false, err
	}

	var res reviewsResponse
	err = json.Unmarshal(body, &res)
	if err != nil {
		err = fmt.Errorf("decode reviews: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReviewSummary{}, false, err
	}
	// steam answers 1 on success, anything else carries no usable summary
	if res.Success != 1 || res.QuerySummary == nil {
		return ReviewSummary{}, false, nil
	}
	return *res.QuerySummary, true, nil
}
