package budgetsdk

import (
	"context"
	"net/http"
)

// The AI endpoints answer with loosely shaped JSON. Each reply is decoded
// into pointer fields first so a missing key is told apart from an empty
// one.

func (c *Client) GetInsights(ctx context.Context) (Insights, error) {
	const path = "/ai/get-insights"

	var raw struct {
		Insights  *[]string `json:"insights"`
		Anomalies *[]string `json:"anomalies"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return Insights{}, err
	}
	if raw.Insights == nil || raw.Anomalies == nil {
		return Insights{}, malformed(http.MethodGet, path, "missing insights or anomalies")
	}
	return Insights{Insights: *raw.Insights, Anomalies: *raw.Anomalies}, nil
}

func (c *Client) GetSuggestions(ctx context.Context) ([]string, error) {
	const path = "/ai/suggest"

	var raw struct {
		Suggestions *[]string `json:"suggestions"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return nil, err
	}
	if raw.Suggestions == nil {
		return nil, malformed(http.MethodGet, path, "missing suggestions")
	}
	return *raw.Suggestions, nil
}

func (c *Client) PredictNextMonth(ctx context.Context) (Prediction, error) {
	const path = "/ai/predict-next-month"

	var raw struct {
		Prediction *float64 `json:"prediction"`
		Message    string   `json:"message"`
	}
	if err := c.get(ctx, path, &raw); err != nil {
		return Prediction{}, err
	}
	if raw.Prediction == nil {
		return Prediction{}, malformed(http.MethodGet, path, "missing prediction")
	}
	return Prediction{Amount: *raw.Prediction, Message: raw.Message}, nil
}
