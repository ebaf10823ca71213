package gateway

import (
	"context"
	"fmt"

	"vocabflow/internal/models"
)

// NextItem fetches the next item for scope. It satisfies session.Gateway.
func (c *Client) NextItem(ctx context.Context, scope models.Scope, excluded models.IDSet) (models.NextItem, error) {
	switch scope.Kind {
	case models.ScopeTopic:
		return c.NextCard(ctx, scope.TopicID, excluded)
	case models.ScopeNotebook:
		return c.NextQuestion(ctx, excluded)
	default:
		return models.NextItem{}, fmt.Errorf("unknown scope %q", scope.Kind)
	}
}

// Submit posts a submission for scope. It satisfies session.Gateway.
func (c *Client) Submit(ctx context.Context, scope models.Scope, sub models.Submission) (*models.SubmissionResult, error) {
	if sub.Item == nil {
		return nil, fmt.Errorf("submission without an item")
	}
	switch scope.Kind {
	case models.ScopeTopic:
		answer := sub.Answer.Trimmed()
		if sub.Skip {
			answer = ""
		}
		return c.SubmitCard(ctx, sub.Item.CardID, answer)
	case models.ScopeNotebook:
		return c.SubmitReview(ctx, sub.Item, sub.Answer, sub.Skip)
	default:
		return nil, fmt.Errorf("unknown scope %q", scope.Kind)
	}
}
