package data

import (
	"github.com/idempomlieko/expressive/internal/biz/domain"
	"github.com/idempomlieko/expressive/internal/biz/repo"
	"github.com/idempomlieko/expressive/internal/infra/feishu"
)

// Repositories contains all repositories
type Repositories struct {
	Document repo.DocumentRepo
	Message  repo.MessageRepo
}

// NewRepositories creates all repositories
func NewRepositories(feishuClient *feishu.Client, dbPath string, logDefaults domain.LogDefaults) (*Repositories, error) {
	documentRepo, err := NewDocumentRepo(dbPath, logDefaults)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Document: documentRepo,
		Message:  NewFeishuRepo(feishuClient),
	}, nil
}
