package core

import (
	"context"
	"fmt"
	"strings"

	"procurecore/pkg/domain"
)

// MaterialUpdate is a partial update applied to a material. Nil fields are
// left unchanged.
type MaterialUpdate struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	Type        *domain.MaterialType   `json:"type,omitempty"`
	Status      *domain.MaterialStatus `json:"status,omitempty"`
	BaseUnit    *string                `json:"base_unit,omitempty"`
	Weight      *float64               `json:"weight,omitempty"`
	Volume      *float64               `json:"volume,omitempty"`
	Dimensions  *string                `json:"dimensions,omitempty"`
}

// MaterialFilter narrows material listings.
type MaterialFilter struct {
	Statuses []domain.MaterialStatus
	Types    []domain.MaterialType
	Search   string
}

// CreateMaterial persists a new material. A material number is generated
// from the type prefix when none is supplied; status defaults to active.
func (s *Service) CreateMaterial(ctx context.Context, material Material) (Material, Result, error) {
	var created Material
	res, err := s.run(ctx, "create_material", func(tx Transaction) error {
		if material.Status == "" {
			material.Status = domain.MaterialStatusActive
		}
		if material.MaterialNumber == "" {
			material.MaterialNumber = generateMaterialNumber(material.Type)
		}
		if err := validateMaterial(material); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateMaterial(material)
		return err
	})
	return created, res, err
}

// GetMaterial returns a material by material number or internal ID.
func (s *Service) GetMaterial(ctx context.Context, key string) (Material, error) {
	var found Material
	err := s.view(ctx, "get_material", func(view TransactionView) error {
		m, ok := lookupMaterial(view, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		found = m
		return nil
	})
	return found, err
}

// ListMaterials returns materials matching the filter.
func (s *Service) ListMaterials(ctx context.Context, filter MaterialFilter) ([]Material, error) {
	var out []Material
	err := s.view(ctx, "list_materials", func(view TransactionView) error {
		for _, m := range view.ListMaterials() {
			if matchesMaterialFilter(m, filter) {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

// CountMaterials returns the number of materials matching the filter.
func (s *Service) CountMaterials(ctx context.Context, filter MaterialFilter) (int, error) {
	materials, err := s.ListMaterials(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(materials), nil
}

// UpdateMaterial applies a partial update. Status changes are validated
// against the material status machine before the patch is applied.
func (s *Service) UpdateMaterial(ctx context.Context, key string, patch MaterialUpdate) (Material, Result, error) {
	var updated Material
	res, err := s.run(ctx, "update_material", func(tx Transaction) error {
		current, ok := lookupMaterialTx(tx, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		if patch.Status != nil && *patch.Status != current.Status {
			if !materialMachine.knows(string(*patch.Status)) {
				return domain.BadRequestError{Message: fmt.Sprintf("unknown material status %q", *patch.Status)}
			}
			if !materialMachine.allows(string(current.Status), string(*patch.Status)) {
				return domain.NewValidationError(
					fmt.Sprintf("invalid status transition from %s to %s", current.Status, *patch.Status),
					map[string]string{
						"material_number":  current.MaterialNumber,
						"current_status":   string(current.Status),
						"requested_status": string(*patch.Status),
						"reason":           "invalid_status_transition",
					})
			}
		}
		var err error
		updated, err = tx.UpdateMaterial(current.ID, func(m *Material) error {
			applyMaterialPatch(m, patch)
			return validateMaterial(*m)
		})
		return err
	})
	return updated, res, err
}

// DeleteMaterial removes a material. Active materials cannot be deleted.
func (s *Service) DeleteMaterial(ctx context.Context, key string) (Result, error) {
	return s.run(ctx, "delete_material", func(tx Transaction) error {
		current, ok := lookupMaterialTx(tx, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		if current.Status == domain.MaterialStatusActive {
			return domain.NewValidationError(
				fmt.Sprintf("cannot delete material with status %s", current.Status),
				map[string]string{
					"material_number": current.MaterialNumber,
					"current_status":  string(current.Status),
					"reason":          "active_material_cannot_be_deleted",
				})
		}
		return tx.DeleteMaterial(current.ID)
	})
}

// DeprecateMaterial marks a material deprecated. Deprecation is terminal.
func (s *Service) DeprecateMaterial(ctx context.Context, key string) (Material, Result, error) {
	var updated Material
	res, err := s.run(ctx, "deprecate_material", func(tx Transaction) error {
		current, ok := lookupMaterialTx(tx, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		if current.Status == domain.MaterialStatusDeprecated {
			return domain.NewValidationError(
				fmt.Sprintf("material %s is already deprecated", current.MaterialNumber),
				map[string]string{
					"material_number": current.MaterialNumber,
					"current_status":  string(current.Status),
					"reason":          "already_deprecated",
				})
		}
		var err error
		updated, err = tx.UpdateMaterial(current.ID, func(m *Material) error {
			m.Status = domain.MaterialStatusDeprecated
			return nil
		})
		return err
	})
	return updated, res, err
}

// ActivateMaterial marks a material active. Deprecated materials cannot be
// reactivated.
func (s *Service) ActivateMaterial(ctx context.Context, key string) (Material, Result, error) {
	var updated Material
	res, err := s.run(ctx, "activate_material", func(tx Transaction) error {
		current, ok := lookupMaterialTx(tx, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		if current.Status == domain.MaterialStatusDeprecated {
			return domain.NewValidationError(
				"cannot activate a deprecated material",
				map[string]string{
					"material_number":  current.MaterialNumber,
					"current_status":   string(current.Status),
					"requested_status": string(domain.MaterialStatusActive),
					"reason":           "deprecated_material_cannot_be_activated",
				})
		}
		var err error
		updated, err = tx.UpdateMaterial(current.ID, func(m *Material) error {
			m.Status = domain.MaterialStatusActive
			return nil
		})
		return err
	})
	return updated, res, err
}

// DeactivateMaterial marks a material inactive.
func (s *Service) DeactivateMaterial(ctx context.Context, key string) (Material, Result, error) {
	var updated Material
	res, err := s.run(ctx, "deactivate_material", func(tx Transaction) error {
		current, ok := lookupMaterialTx(tx, key)
		if !ok {
			return domain.NotFoundError{Entity: domain.EntityMaterial, ID: key}
		}
		if current.Status != domain.MaterialStatusActive {
			return domain.NewValidationError(
				fmt.Sprintf("cannot deactivate material with status %s", current.Status),
				map[string]string{
					"material_number":  current.MaterialNumber,
					"current_status":   string(current.Status),
					"requested_status": string(domain.MaterialStatusInactive),
					"reason":           "invalid_status_transition",
				})
		}
		var err error
		updated, err = tx.UpdateMaterial(current.ID, func(m *Material) error {
			m.Status = domain.MaterialStatusInactive
			return nil
		})
		return err
	})
	return updated, res, err
}

func lookupMaterial(view TransactionView, key string) (Material, bool) {
	if m, ok := view.FindMaterialByNumber(key); ok {
		return m, true
	}
	return view.FindMaterial(key)
}

func lookupMaterialTx(tx Transaction, key string) (Material, bool) {
	if m, ok := tx.FindMaterialByNumber(key); ok {
		return m, true
	}
	return tx.Snapshot().FindMaterial(key)
}

func applyMaterialPatch(m *Material, patch MaterialUpdate) {
	if patch.Name != nil {
		m.Name = *patch.Name
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Type != nil {
		m.Type = *patch.Type
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.BaseUnit != nil {
		m.BaseUnit = *patch.BaseUnit
	}
	if patch.Weight != nil {
		w := *patch.Weight
		m.Weight = &w
	}
	if patch.Volume != nil {
		v := *patch.Volume
		m.Volume = &v
	}
	if patch.Dimensions != nil {
		m.Dimensions = *patch.Dimensions
	}
}

func validateMaterial(m Material) error {
	if strings.TrimSpace(m.Name) == "" {
		return domain.NewValidationError("material name is required", map[string]string{
			"field":  "name",
			"reason": "required",
		})
	}
	if !validDocumentNumber(m.MaterialNumber) {
		return domain.NewValidationError(
			fmt.Sprintf("invalid material number %q", m.MaterialNumber),
			map[string]string{
				"field":  "material_number",
				"reason": "invalid_format",
			})
	}
	if _, ok := materialNumberPrefixes[m.Type]; !ok {
		return domain.NewValidationError(
			fmt.Sprintf("unknown material type %q", m.Type),
			map[string]string{
				"field":  "type",
				"reason": "unknown_type",
			})
	}
	if !materialMachine.knows(string(m.Status)) {
		return domain.NewValidationError(
			fmt.Sprintf("unknown material status %q", m.Status),
			map[string]string{
				"field":  "status",
				"reason": "unknown_status",
			})
	}
	if m.Weight != nil && *m.Weight < 0 {
		return domain.NewValidationError("material weight must be non-negative", map[string]string{
			"field":  "weight",
			"reason": "negative_value",
		})
	}
	return nil
}

func matchesMaterialFilter(m Material, filter MaterialFilter) bool {
	if len(filter.Statuses) > 0 && !containsMaterialStatus(filter.Statuses, m.Status) {
		return false
	}
	if len(filter.Types) > 0 && !containsMaterialType(filter.Types, m.Type) {
		return false
	}
	if filter.Search != "" {
		term := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(m.Name), term) &&
			!strings.Contains(strings.ToLower(m.Description), term) &&
			!strings.Contains(strings.ToLower(m.MaterialNumber), term) {
			return false
		}
	}
	return true
}

func containsMaterialStatus(values []domain.MaterialStatus, status domain.MaterialStatus) bool {
	for _, v := range values {
		if v == status {
			return true
		}
	}
	return false
}

func containsMaterialType(values []domain.MaterialType, t domain.MaterialType) bool {
	for _, v := range values {
		if v == t {
			return true
		}
	}
	return false
}
