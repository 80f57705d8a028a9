package auth

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/upmail/upmail/internal/db/models"
)

// AdminRole is the seeded system role holding every permission.
const AdminRole = "admin"

// Service provides authorization functionality.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) permissionQuery(userID uint64) *gorm.DB {
	return s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND users.active = ?", userID, true)
}

// HasPermission checks if the role of a user grants permission.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.permissionQuery(userID).
		Where("permissions.name = ?", permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(userID uint64, permissions []string) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// GetUserPermissions retrieves all permissions granted to a user.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.permissionQuery(userID).
		Distinct("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// AssignRoleToUser assigns a role to a user.
func (s *Service) AssignRoleToUser(userID uint64, roleID uint) error {
	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("role_id", roleID).Error
}

// EnsureAdminRole creates every known permission and the admin system role
// holding all of them. It is safe to call on every start.
func (s *Service) EnsureAdminRole() (*models.Role, error) {
	role := models.Role{Name: AdminRole, Description: "Full access", IsSystem: true}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Role{Name: AdminRole}).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("failed to create admin role: %w", err)
		}

		for _, def := range Definitions() {
			perm := models.Permission{
				Name:        def.Name,
				Resource:    def.Resource,
				Action:      def.Action,
				Description: def.Description,
			}

			if err := tx.Where(models.Permission{Name: def.Name}).FirstOrCreate(&perm).Error; err != nil {
				return fmt.Errorf("failed to create permission %s: %w", def.Name, err)
			}

			grant := models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}
			if err := tx.Where(grant).FirstOrCreate(&grant).Error; err != nil {
				return fmt.Errorf("failed to grant permission %s: %w", def.Name, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &role, nil
}
