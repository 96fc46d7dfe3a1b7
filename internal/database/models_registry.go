package database

import "atelier/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Experience{},
		&models.Follow{},
		&models.Project{},
		&models.ProjectModule{},
		&models.ProjectLabel{},
		&models.Appreciation{},
		&models.SavedProject{},
	}
}
