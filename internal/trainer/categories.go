package trainer

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/nutritionbot/dashboard-backend/internal/db"
	"github.com/nutritionbot/dashboard-backend/internal/identity"
	"github.com/nutritionbot/dashboard-backend/internal/utils"
	"gorm.io/gorm"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (r categoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	out := []Category{}
	if err := h.db.WithContext(r.Context()).Order("name").Find(&out).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)

	var n int64
	if err := h.db.WithContext(r.Context()).Model(&Category{}).Where("name = ?", name).Count(&n).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	if n > 0 {
		h.fail(w, r, identity.NewError(identity.ErrConflict, "Category already exists"))
		return
	}

	c := Category{ID: uuid.New(), Name: name}
	if err := h.db.WithContext(r.Context()).Create(&c).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, "Category already exists"))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":  "Category created successfully",
		"category": c,
	})
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Category not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req categoryRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	tx := h.db.WithContext(r.Context())

	var n int64
	if err := tx.Model(&Category{}).Where("name = ? AND id <> ?", name, id).Count(&n).Error; err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	if n > 0 {
		h.fail(w, r, identity.NewError(identity.ErrConflict, "Category name already exists"))
		return
	}

	res := tx.Model(&Category{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		h.fail(w, r, db.TranslateError(res.Error, "Category name already exists"))
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, r, identity.NewError(identity.ErrNotFound, "Category not found"))
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message":  "Category updated successfully",
		"category": Category{ID: id, Name: name},
	})
}

// DeleteCategory refuses while any question still points at the category.
func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "Category not found")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&Question{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return identity.NewError(identity.ErrConflict, "Cannot delete category that is being used by questions")
		}
		res := tx.Where("id = ?", id).Delete(&Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return identity.NewError(identity.ErrNotFound, "Category not found")
		}
		return nil
	})
	if err != nil {
		h.fail(w, r, db.TranslateError(err, ""))
		return
	}
	utils.WriteMessage(w, http.StatusOK, "Category deleted successfully")
}
