package ports

import "eosphase/internal/model"

// ModelStorePort persists fitted models
type ModelStorePort interface {
	Save(m *model.Model, path string) (string, error)
	Load(path string) (*model.Model, error)
}
