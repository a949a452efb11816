package usecase

import "github.com/idempomlieko/expressive/internal/biz/domain"

// Match returns the ordered subsequence of expressions triggered by the
// message, independent of cooldown state. Each expression appears at most
// once regardless of how often a phrase occurs in the body. Messages from
// automated accounts never match anything.
func Match(msg *domain.Message, expressions []domain.Expression) []domain.Expression {
	if msg.FromBot {
		return nil
	}

	var matched []domain.Expression
	for _, expr := range expressions {
		if expr.Matches(msg) {
			matched = append(matched, expr)
		}
	}
	return matched
}
