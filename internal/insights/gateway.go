package insights

import "context"

// Gateway is the LLM boundary. Both calls are one-shot: no streaming and no
// retries; callers bound them with the request context.
type Gateway interface {
	// AnswerSalesQuestion turns a question plus the pre-aggregated sales
	// rows into a prose summary.
	AnswerSalesQuestion(ctx context.Context, question string, products []ProductSales) (string, error)

	// AnalyzeBusiness reviews the full snapshot and returns structured
	// findings.
	AnalyzeBusiness(ctx context.Context, snapshot BusinessSnapshot, focus string) (*BusinessAnalysisResponse, error)
}

// EmptyResponseError reports that the LLM returned no usable structured
// output. Fatal for the request; never retried.
type EmptyResponseError struct {
	Operation string
}

func (e *EmptyResponseError) Error() string {
	return "insights gateway returned an empty response for " + e.Operation
}
